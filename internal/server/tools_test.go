package server

import (
	"encoding/json"
	"testing"

	"github.com/ironsheep/segment-diagnostics-mcp/internal/config"
)

func toolsByName() map[string]Tool {
	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}
	return toolMap
}

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"image_load",
		"image_dimensions",
		"image_matrix",
		"image_cache_clear",
		"diag_pointwise",
		"diag_psis",
		"segment_render",
		"segment_predict",
		"cluster_metrics",
		"plot_diagnostics",
		"plot_seg_vs_truth",
		"runlog_append",
		"runlog_read",
	}

	toolMap := toolsByName()
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("tool count: got %d, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Dispatchable(t *testing.T) {
	s := New(config.Default())

	// Every advertised tool must be known to executeTool. An empty argument
	// object may fail validation, but never as an unknown tool.
	for _, tool := range GetToolDefinitions() {
		_, err := s.executeTool(tool.Name, json.RawMessage(`{"path":"/nonexistent/x.png"}`))
		if err != nil && err.Error() == "unknown tool: "+tool.Name {
			t.Errorf("tool %s is listed but not dispatched", tool.Name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Name == "" {
				t.Error("Tool name is empty")
			}
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema == nil {
				t.Fatal("Tool InputSchema is nil")
			}

			if schemaType := tool.InputSchema["type"]; schemaType != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", schemaType)
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			// Every required field must be declared.
			if required, ok := tool.InputSchema["required"].([]string); ok {
				for _, r := range required {
					if _, ok := props[r]; !ok {
						t.Errorf("required field %s is not a property", r)
					}
				}
			}

			// The schema must survive JSON encoding for tools/list.
			if _, err := json.Marshal(tool); err != nil {
				t.Errorf("failed to marshal tool: %v", err)
			}
		})
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	tests := map[string][]string{
		"image_load":        {"path"},
		"image_dimensions":  {"path"},
		"image_matrix":      {"img_id"},
		"segment_render":    {"labels", "rows", "cols", "lookup"},
		"segment_predict":   {"img_id", "components"},
		"cluster_metrics":   {"labels_true", "labels_pred"},
		"plot_seg_vs_truth": {"img_id", "truth_path", "seg1_path", "seg2_path"},
		"runlog_append":     {"img", "log_lik"},
	}

	toolMap := toolsByName()
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			tool, ok := toolMap[name]
			if !ok {
				t.Fatalf("tool %s not found", name)
			}
			required, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}
			have := make(map[string]bool)
			for _, r := range required {
				have[r] = true
			}
			for _, w := range want {
				if !have[w] {
					t.Errorf("%s should require %q", name, w)
				}
			}
		})
	}
}

func TestToolDefinitions_Enums(t *testing.T) {
	tests := []struct {
		tool  string
		param string
		want  []string
	}{
		{"diag_psis", "family", []string{"mean_field", "full_rank"}},
		{"segment_predict", "cov_kind", []string{"full", "precision_diagonal", "cov_diagonal"}},
		{"plot_diagnostics", "kind", []string{"dist", "pixel-dist", "heatmap"}},
	}

	toolMap := toolsByName()
	for _, tt := range tests {
		t.Run(tt.tool+"."+tt.param, func(t *testing.T) {
			props := toolMap[tt.tool].InputSchema["properties"].(map[string]interface{})
			param, ok := props[tt.param].(map[string]interface{})
			if !ok {
				t.Fatalf("%s property missing", tt.param)
			}
			enum, ok := param["enum"].([]string)
			if !ok {
				t.Fatal("enum missing")
			}
			if len(enum) != len(tt.want) {
				t.Fatalf("enum: got %v, want %v", enum, tt.want)
			}
			for i := range enum {
				if enum[i] != tt.want[i] {
					t.Errorf("enum[%d]: got %s, want %s", i, enum[i], tt.want[i])
				}
			}
		})
	}
}

func TestHandleToolsList(t *testing.T) {
	s := New(config.Default())
	resp := s.handleToolsList(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
	})

	if resp == nil {
		t.Fatal("handleToolsList returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != len(GetToolDefinitions()) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(GetToolDefinitions()))
	}
}
