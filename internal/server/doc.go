// Package server implements the MCP (Model Context Protocol) server for
// segmentation diagnostics.
//
// The server exposes the diagnostics, segment, metrics, plot and runlog
// packages as MCP tools over JSON-RPC 2.0.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Input:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//   - image_matrix: Load <img_id>.jpg as an N x C pixel matrix
//   - image_cache_clear: Evict one image or all images from the cache
//
// Diagnostics:
//   - diag_pointwise: pdi, log-pdi, pdi-log and wapdi per data point
//   - diag_psis: Pareto-smoothed importance sampling k and reliability
//
// Segmentation:
//   - segment_render: Labels plus colour lookup to image
//   - segment_predict: Posterior-mean mixture assignment of an image's pixels
//   - cluster_metrics: Homogeneity, completeness, V-measure, ARI, AMI
//
// Figures:
//   - plot_diagnostics: dist, pixel-dist or heatmap figure
//   - plot_seg_vs_truth: Original, human and model segmentations side by side
//
// Run Log:
//   - runlog_append: Record a fit's log-likelihood and runtime
//   - runlog_read: List recorded fits
//
// # Numbers
//
// Diagnostics are often NaN or infinite (a data point with zero predictive
// variance, a Pareto tail too short to fit). Such values are written as the
// JSON strings "NaN", "+Inf" and "-Inf".
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses:
//   - -32602: the arguments are malformed or inconsistent
//   - -32000: the tool failed while running
//   - -32601: unknown method
//
// # Usage
//
//	cfg, err := config.FromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := server.New(cfg).Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
