// Package diagnostics computes posterior predictive diagnostics for a
// fitted segmentation model.
//
// Two families of diagnostics are provided:
//
//   - Pointwise diagnostics (PDI, log-PDI, PDI-log, WAPDI) computed from a
//     log-likelihood matrix with one row per posterior draw and one column
//     per data point (pixel).
//   - A global importance-sampling diagnostic (PSIS) computed from the log
//     importance ratios of a variational approximation against the model's
//     log joint density.
//
// # Log-Likelihood Layout
//
// The log-likelihood matrix has shape (S, N): S posterior draws on the row
// axis, N data points on the column axis. Entry (s, n) is log p(x_n | θ_s).
// Columns are independent of one another, so the pointwise computation can be
// split across goroutines (see PointwiseParallel).
//
// # Numerical Behavior
//
// The mean predictive density of each point is computed in log space with a
// log-sum-exp so that very negative log-likelihoods do not underflow.
// Divisions are never trapped: a zero or negative denominator produces ±Inf
// or NaN following IEEE 754 semantics. Use Finite to drop those entries before
// summarising or plotting.
//
// # Pareto Smoothing
//
// SmoothLogWeights fits a generalized Pareto distribution to the right tail of
// the log importance weights and replaces the tail with the fitted order
// statistics. The estimated shape k̂ is reported, not enforced:
//
//   - k̂ < 0.5: importance weights are reliable
//   - 0.5 <= k̂ < 0.7: usable with care
//   - k̂ >= 0.7: the approximation is a poor match for the target
//
// # Variational Approximations
//
// The importance diagnostic needs only two things from a fitted
// approximation: draws, and the closed-form log density of its family. The
// Approximation interface captures that capability so that any fitting
// backend exposing Gaussian variational parameters can be diagnosed.
package diagnostics
