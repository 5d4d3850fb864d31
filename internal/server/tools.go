package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

func arrayProp(itemType, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items":       map[string]interface{}{"type": itemType},
	}
}

func matrixProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "number"},
		},
	}
}

var lookupProp = map[string]interface{}{
	"type":        "object",
	"description": "Cluster label to colour vector (1 or 3 channels, 0-255), keyed by label",
	"additionalProperties": map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"type": "number"},
	},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Input
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, channel count and file size.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": prop("string", "Absolute path to the image file"),
			}, "path"),
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": prop("string", "Absolute path to the image file"),
			}, "path"),
		},
		{
			Name:        "image_matrix",
			Description: "Load training image <img_id>.jpg as an N x C pixel matrix in row-major order and report its shape and per-channel means.",
			InputSchema: objectSchema(map[string]interface{}{
				"img_id":         prop("string", "Image identifier, e.g. 42049"),
				"dir":            prop("string", "Directory holding the images. Defaults to the configured training directory"),
				"include_pixels": prop("boolean", "Return the full pixel matrix. Default false"),
			}, "img_id"),
		},
		{
			Name:        "image_cache_clear",
			Description: "Drop decoded images from the server's image cache so edited files are read again. Without a path the whole cache is cleared.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": prop("string", "Evict only the image loaded from this path"),
			}),
		},

		// Diagnostics
		{
			Name:        "diag_pointwise",
			Description: "Compute the per-data-point predictive diagnostics (pdi, log-pdi, pdi-log, wapdi) from an S x N matrix of log-likelihood draws. Columns are processed in parallel.",
			InputSchema: objectSchema(map[string]interface{}{
				"log_px":       matrixProp("Log-likelihood draws, one row per posterior draw and one column per data point"),
				"path":         prop("string", "CSV file holding the matrix instead of log_px"),
				"workers":      prop("integer", "Number of parallel workers. Defaults to the configured worker count"),
				"save_dir":     prop("string", "When set, write one heatmap PNG per diagnostic into this directory"),
				"heatmap_rows": prop("integer", "Image rows for the saved heatmaps"),
				"heatmap_cols": prop("integer", "Image columns for the saved heatmaps"),
			}),
		},
		{
			Name:        "diag_psis",
			Description: "Pareto-smoothed importance sampling diagnostic. Give either precomputed log densities (p_theta_y, q_theta) or a Gaussian approximation with a normal target to sample from. Returns the tail shape k and its reliability class.",
			InputSchema: objectSchema(map[string]interface{}{
				"p_theta_y": arrayProp("number", "Log joint density at each draw"),
				"q_theta":   arrayProp("number", "Log approximation density at the same draws"),
				"family": map[string]interface{}{
					"type":        "string",
					"description": "Approximation family",
					"enum":        []string{"mean_field", "full_rank"},
				},
				"mu":              arrayProp("number", "Approximation mean"),
				"rho":             arrayProp("number", "Mean-field scale parameters; sd = log(1 + exp(rho))"),
				"packed_chol":     arrayProp("number", "Full-rank Cholesky factor, lower triangle packed row by row, log-scale diagonal"),
				"target_mu":       arrayProp("number", "Mean of the normal target"),
				"target_cov":      matrixProp("Covariance of the normal target"),
				"nsample":         prop("integer", "Number of draws from the approximation. Default 1000"),
				"seed":            prop("integer", "Random seed. Default is time based"),
				"include_weights": prop("boolean", "Return the smoothed log weights. Default false"),
			}),
		},

		// Segmentation
		{
			Name:        "segment_render",
			Description: "Rebuild a segmented image from per-pixel cluster labels and a cluster colour lookup.",
			InputSchema: objectSchema(map[string]interface{}{
				"labels":    arrayProp("integer", "Cluster label per pixel, row-major"),
				"rows":      prop("integer", "Image height"),
				"cols":      prop("integer", "Image width"),
				"lookup":    lookupProp,
				"save_path": prop("string", "Write the image to this path"),
				"inline":    prop("boolean", "Return the image as base64 PNG. Default false"),
			}, "labels", "rows", "cols", "lookup"),
		},
		{
			Name:        "segment_predict",
			Description: "Build a Gaussian mixture at the posterior means of component traces, assign every pixel of an image to its most likely component and report cluster sizes. Optionally saves the fitted and original images.",
			InputSchema: objectSchema(map[string]interface{}{
				"img_id": prop("string", "Image identifier"),
				"dir":    prop("string", "Image directory. Defaults to the configured training directory"),
				"cov_kind": map[string]interface{}{
					"type":        "string",
					"description": "How covariance traces are parameterised. Default full",
					"enum":        []string{"full", "precision_diagonal", "cov_diagonal"},
				},
				"components": map[string]interface{}{
					"type":        "array",
					"description": "Per-component traces: mu is draws x dim, cov is draws x covariance parameters",
					"items": objectSchema(map[string]interface{}{
						"mu":  matrixProp("Mean draws"),
						"cov": matrixProp("Covariance parameter draws"),
					}, "mu", "cov"),
				},
				"k":    prop("integer", "Number of clusters used in file names. Defaults to the component count"),
				"t":    prop("integer", "Truncation level used in file names"),
				"save": prop("boolean", "Save fitted and original images under the output directory"),
			}, "img_id", "components"),
		},
		{
			Name:        "cluster_metrics",
			Description: "Score a clustering against ground truth: homogeneity, completeness, V-measure, adjusted Rand index and adjusted mutual information.",
			InputSchema: objectSchema(map[string]interface{}{
				"labels_true": arrayProp("integer", "Ground-truth labels"),
				"labels_pred": arrayProp("integer", "Predicted cluster labels"),
			}, "labels_true", "labels_pred"),
		},

		// Figures
		{
			Name:        "plot_diagnostics",
			Description: "Render the four pointwise diagnostics as one figure: histograms (dist), values against pixel index (pixel-dist), or image-shaped heatmaps beside the original and segmented images (heatmap).",
			InputSchema: objectSchema(map[string]interface{}{
				"log_px": matrixProp("Log-likelihood draws, S x N"),
				"path":   prop("string", "CSV file holding the matrix instead of log_px"),
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Figure layout. Default dist",
					"enum":        []string{"dist", "pixel-dist", "heatmap"},
				},
				"img_id":      prop("string", "Image identifier; required for heatmap"),
				"dir":         prop("string", "Image directory. Defaults to the configured training directory"),
				"labels":      arrayProp("integer", "Cluster label per pixel; required for heatmap"),
				"lookup":      lookupProp,
				"method":      prop("string", "Inference method shown in the segmented panel title, e.g. ADVI"),
				"save_path":   prop("string", "Output PNG path. Defaults to the output directory"),
				"cell_width":  prop("integer", "Panel width in pixels"),
				"cell_height": prop("integer", "Panel height in pixels"),
			}),
		},
		{
			Name:        "plot_seg_vs_truth",
			Description: "Place the original image, the human segmentation and two model segmentations side by side.",
			InputSchema: objectSchema(map[string]interface{}{
				"img_id":     prop("string", "Image identifier"),
				"dir":        prop("string", "Image directory. Defaults to the configured training directory"),
				"truth_path": prop("string", "Human segmentation image"),
				"seg1_path":  prop("string", "MCMC segmentation image"),
				"seg2_path":  prop("string", "ADVI segmentation image"),
				"save_path":  prop("string", "Output PNG path. Defaults to the output directory"),
			}, "img_id", "truth_path", "seg1_path", "seg2_path"),
		},

		// Run Log
		{
			Name:        "runlog_append",
			Description: "Append a fit record (image, K, T, log-likelihood, runtime) to the run log in the configured log directory.",
			InputSchema: objectSchema(map[string]interface{}{
				"img":              prop("string", "Image identifier"),
				"k":                prop("integer", "Number of clusters"),
				"t":                prop("integer", "Truncation level"),
				"log_lik":          prop("number", "Data log-likelihood of the fit"),
				"runtime_seconds":  prop("number", "Fit runtime in seconds"),
				"expected_log_lik": prop("number", "Expected data log-likelihood of the fit. Logged, not stored"),
			}, "img", "log_lik"),
		},
		{
			Name:        "runlog_read",
			Description: "Read the run log, optionally filtered to one image.",
			InputSchema: objectSchema(map[string]interface{}{
				"img": prop("string", "Only return records for this image"),
			}),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
