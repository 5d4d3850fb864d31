package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/segment-diagnostics-mcp/internal/diagnostics"
	"github.com/ironsheep/segment-diagnostics-mcp/internal/imaging"
	"github.com/ironsheep/segment-diagnostics-mcp/internal/metrics"
	"github.com/ironsheep/segment-diagnostics-mcp/internal/plot"
	"github.com/ironsheep/segment-diagnostics-mcp/internal/runlog"
	"github.com/ironsheep/segment-diagnostics-mcp/internal/segment"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "diag_pointwise", "cluster_metrics").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// invalidParamsError marks a tool failure caused by the caller's arguments.
type invalidParamsError struct {
	err error
}

func (e *invalidParamsError) Error() string { return e.err.Error() }
func (e *invalidParamsError) Unwrap() error { return e.err }

func invalidParams(format string, args ...interface{}) error {
	return &invalidParamsError{err: fmt.Errorf(format, args...)}
}

// decodeArgs unmarshals tool arguments, reporting failures as invalid params.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &invalidParamsError{err: err}
	}
	return nil
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Argument errors return code -32602; other tool failures return -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if s.cfg.Debug() {
		log.Printf("tool %s finished in %v (err=%v)", params.Name, time.Since(start), err)
	}
	if err != nil {
		var ipe *invalidParamsError
		if errors.As(err, &ipe) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return s.errorResponse(req.ID, codeToolFailed, "Failed to encode result", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": string(text),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies defaults, falling back to the server configuration for directories
//  3. Calls the diagnostics, segment, metrics, plot or runlog package
//  4. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image Input
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_matrix":
		return s.handleImageMatrix(args)
	case "image_cache_clear":
		return s.handleImageCacheClear(args)

	// Diagnostics
	case "diag_pointwise":
		return s.handleDiagPointwise(args)
	case "diag_psis":
		return s.handleDiagPSIS(args)

	// Segmentation
	case "segment_render":
		return s.handleSegmentRender(args)
	case "segment_predict":
		return s.handleSegmentPredict(args)
	case "cluster_metrics":
		return s.handleClusterMetrics(args)

	// Figures
	case "plot_diagnostics":
		return s.handlePlotDiagnostics(args)
	case "plot_seg_vs_truth":
		return s.handlePlotSegVsTruth(args)

	// Run Log
	case "runlog_append":
		return s.handleRunlogAppend(args)
	case "runlog_read":
		return s.handleRunlogRead(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// matrixArg builds the matrix argument name from equal-length rows.
func matrixArg(name string, rows [][]float64) (*mat.Dense, error) {
	m, err := diagnostics.FromRows(rows)
	if err != nil {
		return nil, &invalidParamsError{err: fmt.Errorf("%s: %w", name, err)}
	}
	return m, nil
}

// === Image Input Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, invalidParams("path is required")
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, invalidParams("path is required")
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageMatrixArgs struct {
	ImgID         string `json:"img_id"`
	Dir           string `json:"dir"`
	IncludePixels bool   `json:"include_pixels"`
}

type imageMatrixResult struct {
	ImgID        string      `json:"img_id"`
	Path         string      `json:"path"`
	Rows         int         `json:"rows"`
	Cols         int         `json:"cols"`
	Channels     int         `json:"channels"`
	ChannelMeans []float64   `json:"channel_means"`
	Pixels       [][]float64 `json:"pixels,omitempty"`
}

func (s *Server) trainDir(dir string) string {
	if dir == "" {
		return s.cfg.TrainDir
	}
	return dir
}

func (s *Server) handleImageMatrix(args json.RawMessage) (interface{}, error) {
	var a imageMatrixArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ImgID == "" {
		return nil, invalidParams("img_id is required")
	}
	dir := s.trainDir(a.Dir)
	m, err := imaging.LoadImageMatrix(s.cache, a.ImgID, dir)
	if err != nil {
		return nil, err
	}

	res := &imageMatrixResult{
		ImgID:        a.ImgID,
		Path:         imaging.ImagePath(dir, a.ImgID),
		Rows:         m.Rows,
		Cols:         m.Cols,
		Channels:     m.Channels,
		ChannelMeans: make([]float64, m.Channels),
	}
	n, _ := m.Pixels.Dims()
	col := make([]float64, n)
	for c := 0; c < m.Channels; c++ {
		mat.Col(col, c, m.Pixels)
		res.ChannelMeans[c] = stat.Mean(col, nil)
	}
	if a.IncludePixels {
		res.Pixels = make([][]float64, n)
		for i := range res.Pixels {
			res.Pixels[i] = mat.Row(nil, i, m.Pixels)
		}
	}
	return res, nil
}

type imageCacheClearArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageCacheClear(args json.RawMessage) (interface{}, error) {
	var a imageCacheClearArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cleared := "all"
	if a.Path != "" {
		s.cache.Evict(a.Path)
		cleared = a.Path
	} else {
		s.cache.Clear()
	}
	return map[string]interface{}{"cleared": cleared, "cached": s.cache.Len()}, nil
}

// === Diagnostics Handlers ===

// logLikSource selects a log-likelihood matrix given inline or from a CSV
// file.
type logLikSource struct {
	LogPx [][]float64 `json:"log_px"`
	Path  string      `json:"path"`
}

func (src logLikSource) load() (*mat.Dense, error) {
	switch {
	case len(src.LogPx) > 0 && src.Path != "":
		return nil, invalidParams("give either log_px or path, not both")
	case len(src.LogPx) > 0:
		return matrixArg("log_px", src.LogPx)
	case src.Path != "":
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open log-likelihood file: %w", err)
		}
		defer f.Close()
		return diagnostics.ReadLogLikelihoodCSV(f)
	}
	return nil, invalidParams("log_px or path is required")
}

func (s *Server) pointwise(src logLikSource, workers int) (*diagnostics.PointwiseResult, int, error) {
	m, err := src.load()
	if err != nil {
		return nil, 0, err
	}
	if workers < 1 {
		workers = s.cfg.Workers
	}
	draws, _ := m.Dims()
	return diagnostics.PointwiseParallel(m, workers), draws, nil
}

type diagPointwiseArgs struct {
	logLikSource
	Workers     int    `json:"workers"`
	HeatmapRows int    `json:"heatmap_rows"`
	HeatmapCols int    `json:"heatmap_cols"`
	SaveDir     string `json:"save_dir"`
}

func (s *Server) handleDiagPointwise(args json.RawMessage) (interface{}, error) {
	var a diagPointwiseArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	r, draws, err := s.pointwise(a.logLikSource, a.Workers)
	if err != nil {
		return nil, err
	}
	res := newPointwiseToolResult(draws, r)

	if a.SaveDir == "" {
		return res, nil
	}
	if a.HeatmapRows*a.HeatmapCols != r.Len() {
		return nil, invalidParams("heatmap_rows x heatmap_cols = %d, have %d data points", a.HeatmapRows*a.HeatmapCols, r.Len())
	}
	for _, m := range []struct {
		name   string
		values []float64
	}{
		{"pdi", r.PDI},
		{"log_pdi", r.LogPDI},
		{"pdi_log", r.PDILog},
		{"wapdi", r.WAPDI},
	} {
		path := filepath.Join(a.SaveDir, m.name+".png")
		if err := plot.SaveMetricHeatmap(m.values, a.HeatmapRows, a.HeatmapCols, m.name, path, plot.Options{}); err != nil {
			return nil, fmt.Errorf("failed to save %s heatmap: %w", m.name, err)
		}
		res.Files = append(res.Files, path)
	}
	return res, nil
}

type diagPSISArgs struct {
	// Precomputed log densities at each draw.
	PThetaY []float64 `json:"p_theta_y"`
	QTheta  []float64 `json:"q_theta"`

	// Gaussian approximation and normal target.
	Family     string      `json:"family"`
	Mu         []float64   `json:"mu"`
	Rho        []float64   `json:"rho"`
	PackedChol []float64   `json:"packed_chol"`
	TargetMu   []float64   `json:"target_mu"`
	TargetCov  [][]float64 `json:"target_cov"`
	NSample    int         `json:"nsample"`
	Seed       uint64      `json:"seed"`

	IncludeWeights bool `json:"include_weights"`
}

func (a *diagPSISArgs) approximation() (*diagnostics.GaussianApproximation, error) {
	var fam diagnostics.Family
	switch a.Family {
	case "mean_field":
		fam = diagnostics.MeanField{Mu: a.Mu, Rho: a.Rho}
	case "full_rank":
		fam = diagnostics.FullRank{Mu: a.Mu, PackedChol: a.PackedChol}
	case "":
		return nil, invalidParams("p_theta_y/q_theta or family is required")
	default:
		return nil, invalidParams("unknown family %q (want mean_field or full_rank)", a.Family)
	}

	if len(a.TargetMu) != fam.Dim() {
		return nil, invalidParams("target_mu has %d values, approximation has dimension %d", len(a.TargetMu), fam.Dim())
	}
	cov, err := matrixArg("target_cov", a.TargetCov)
	if err != nil {
		return nil, err
	}
	if r, c := cov.Dims(); r != c || r != fam.Dim() {
		return nil, invalidParams("target_cov is %dx%d, want %dx%d", r, c, fam.Dim(), fam.Dim())
	}
	if !mat.Equal(cov, cov.T()) {
		return nil, invalidParams("target_cov is not symmetric")
	}
	sym := mat.NewSymDense(fam.Dim(), cov.RawMatrix().Data)
	target, err := diagnostics.NewNormalTarget(a.TargetMu, sym)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}

	seed := a.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &diagnostics.GaussianApproximation{
		Family: fam,
		Target: target,
		Src:    rand.NewSource(seed),
	}, nil
}

func (s *Server) handleDiagPSIS(args json.RawMessage) (interface{}, error) {
	var a diagPSISArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var (
		res *diagnostics.PSISResult
		err error
	)
	if len(a.PThetaY) > 0 || len(a.QTheta) > 0 {
		res, err = diagnostics.ImportanceDiagnostic(a.PThetaY, a.QTheta)
		if err != nil {
			return nil, &invalidParamsError{err: err}
		}
	} else {
		approx, aerr := a.approximation()
		if aerr != nil {
			return nil, aerr
		}
		if a.NSample == 0 {
			a.NSample = 1000
		}
		if a.NSample < 1 {
			return nil, invalidParams("nsample must be positive")
		}
		res, err = diagnostics.PSIS(approx, a.NSample)
	}
	if err != nil {
		return nil, err
	}

	out := &PSISToolResult{
		K:                   Float(res.K),
		Reliability:         res.Reliability(),
		Draws:               len(res.LogWeights),
		EffectiveSampleSize: Float(res.EffectiveSampleSize()),
	}
	if a.IncludeWeights {
		out.LogWeights = toFloats(res.LogWeights)
	}
	return out, nil
}

// === Segmentation Handlers ===

type segmentRenderArgs struct {
	Labels   []int             `json:"labels"`
	Rows     int               `json:"rows"`
	Cols     int               `json:"cols"`
	Lookup   map[int][]float64 `json:"lookup"`
	SavePath string            `json:"save_path"`
	Inline   bool              `json:"inline"`
}

type segmentRenderResult struct {
	Rows        int                    `json:"rows"`
	Cols        int                    `json:"cols"`
	Channels    int                    `json:"channels"`
	Palette     []imaging.PaletteEntry `json:"palette"`
	Path        string                 `json:"path,omitempty"`
	ImageBase64 string                 `json:"image_base64,omitempty"`
	MimeType    string                 `json:"mime_type,omitempty"`
}

func (s *Server) handleSegmentRender(args json.RawMessage) (interface{}, error) {
	var a segmentRenderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	seg, err := segment.Reconstruct(a.Labels, a.Rows, a.Cols, a.Lookup)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}
	palette, err := imaging.DescribePalette(a.Lookup)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}
	img, err := seg.ToImage()
	if err != nil {
		return nil, err
	}

	res := &segmentRenderResult{Rows: seg.Rows, Cols: seg.Cols, Channels: seg.Channels, Palette: palette}
	if a.SavePath != "" {
		if err := imaging.Save(img, a.SavePath); err != nil {
			return nil, err
		}
		res.Path = a.SavePath
	}
	if a.Inline {
		b64, err := imaging.EncodePNGBase64(img)
		if err != nil {
			return nil, err
		}
		res.ImageBase64 = b64
		res.MimeType = "image/png"
	}
	return res, nil
}

type componentTraceArgs struct {
	Mu  [][]float64 `json:"mu"`
	Cov [][]float64 `json:"cov"`
}

type segmentPredictArgs struct {
	ImgID      string               `json:"img_id"`
	Dir        string               `json:"dir"`
	CovKind    string               `json:"cov_kind"`
	Components []componentTraceArgs `json:"components"`
	K          int                  `json:"k"`
	T          int                  `json:"t"`
	Save       bool                 `json:"save"`
}

type segmentPredictResult struct {
	ImgID        string                 `json:"img_id"`
	Rows         int                    `json:"rows"`
	Cols         int                    `json:"cols"`
	ClusterSizes map[int]int            `json:"cluster_sizes"`
	Palette      []imaging.PaletteEntry `json:"palette"`
	Files        *plot.ResultFiles      `json:"files,omitempty"`
}

func (s *Server) handleSegmentPredict(args json.RawMessage) (interface{}, error) {
	var a segmentPredictArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ImgID == "" {
		return nil, invalidParams("img_id is required")
	}
	if a.CovKind == "" {
		a.CovKind = string(segment.CovFull)
	}
	kind, err := segment.ParseCovKind(a.CovKind)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}
	if len(a.Components) == 0 {
		return nil, invalidParams("components is required")
	}

	traces := make([]segment.ComponentTrace, len(a.Components))
	for i, c := range a.Components {
		mu, err := matrixArg(fmt.Sprintf("components[%d].mu", i), c.Mu)
		if err != nil {
			return nil, err
		}
		cov, err := matrixArg(fmt.Sprintf("components[%d].cov", i), c.Cov)
		if err != nil {
			return nil, err
		}
		traces[i] = segment.ComponentTrace{Mu: mu, Cov: cov}
	}
	mix, err := segment.PosteriorMeanComponents(traces, kind)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}

	m, err := imaging.LoadImageMatrix(s.cache, a.ImgID, s.trainDir(a.Dir))
	if err != nil {
		return nil, err
	}
	if dim := mix.Dim(); dim != m.Channels {
		return nil, invalidParams("components have dimension %d, image has %d channels", dim, m.Channels)
	}

	labels := mix.Predict(m.Pixels)
	lookup := mix.MeanColors()
	seg, err := segment.Reconstruct(labels, m.Rows, m.Cols, lookup)
	if err != nil {
		return nil, err
	}
	palette, err := imaging.DescribePalette(lookup)
	if err != nil {
		return nil, err
	}

	res := &segmentPredictResult{
		ImgID:        a.ImgID,
		Rows:         m.Rows,
		Cols:         m.Cols,
		ClusterSizes: make(map[int]int),
		Palette:      palette,
	}
	for _, l := range labels {
		res.ClusterSizes[l]++
	}

	if a.Save {
		segImg, err := seg.ToImage()
		if err != nil {
			return nil, err
		}
		k := a.K
		if k == 0 {
			k = len(mix.Components)
		}
		files, err := plot.SaveClusteredPair(m.Image, segImg, s.cfg.OutputDir, a.ImgID, k, a.T, s.now())
		if err != nil {
			return nil, err
		}
		res.Files = &files
	}
	return res, nil
}

type clusterMetricsArgs struct {
	LabelsTrue []int `json:"labels_true"`
	LabelsPred []int `json:"labels_pred"`
}

type clusterMetricsResult struct {
	*metrics.ClusterScores
	Report string `json:"report"`
}

func (s *Server) handleClusterMetrics(args json.RawMessage) (interface{}, error) {
	var a clusterMetricsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	scores, err := metrics.ScoreClustering(a.LabelsTrue, a.LabelsPred)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}
	return &clusterMetricsResult{ClusterScores: scores, Report: scores.String()}, nil
}

// === Figure Handlers ===

type plotDiagnosticsArgs struct {
	logLikSource
	Kind       string            `json:"kind"`
	ImgID      string            `json:"img_id"`
	Dir        string            `json:"dir"`
	Labels     []int             `json:"labels"`
	Lookup     map[int][]float64 `json:"lookup"`
	Method     string            `json:"method"`
	SavePath   string            `json:"save_path"`
	CellWidth  int               `json:"cell_width"`
	CellHeight int               `json:"cell_height"`
}

func (s *Server) handlePlotDiagnostics(args json.RawMessage) (interface{}, error) {
	var a plotDiagnosticsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Kind == "" {
		a.Kind = string(plot.KindDist)
	}
	kind, err := plot.ParseKind(a.Kind)
	if err != nil {
		return nil, &invalidParamsError{err: err}
	}

	r, _, err := s.pointwise(a.logLikSource, 0)
	if err != nil {
		return nil, err
	}
	set := &plot.DiagnosticSet{
		PDI:    r.PDI,
		LogPDI: r.LogPDI,
		PDILog: r.PDILog,
		WAPDI:  r.WAPDI,
		Method: a.Method,
	}

	if kind == plot.KindHeatmap {
		if a.ImgID == "" {
			return nil, invalidParams("img_id is required for heatmap plots")
		}
		m, err := imaging.LoadImageMatrix(s.cache, a.ImgID, s.trainDir(a.Dir))
		if err != nil {
			return nil, err
		}
		seg, err := segment.Reconstruct(a.Labels, m.Rows, m.Cols, a.Lookup)
		if err != nil {
			return nil, &invalidParamsError{err: err}
		}
		segImg, err := seg.ToImage()
		if err != nil {
			return nil, err
		}
		set.Rows, set.Cols = m.Rows, m.Cols
		set.Original = m.Image
		set.Segmented = segImg
	}

	fig, err := plot.DiagnosticPanels(set, kind, plot.Options{CellWidth: a.CellWidth, CellHeight: a.CellHeight})
	if err != nil {
		return nil, err
	}
	if a.SavePath == "" {
		a.SavePath = filepath.Join(s.cfg.OutputDir, fmt.Sprintf("diagnostics_%s_%s.png", kind, s.now().Format(runlog.TimeLayout)))
	}
	if err := imaging.Save(fig, a.SavePath); err != nil {
		return nil, err
	}
	b := fig.Bounds()
	return &FileResult{Path: a.SavePath, Width: b.Dx(), Height: b.Dy()}, nil
}

type plotSegVsTruthArgs struct {
	ImgID    string `json:"img_id"`
	Dir      string `json:"dir"`
	Truth    string `json:"truth_path"`
	Seg1     string `json:"seg1_path"`
	Seg2     string `json:"seg2_path"`
	SavePath string `json:"save_path"`
}

func (s *Server) handlePlotSegVsTruth(args json.RawMessage) (interface{}, error) {
	var a plotSegVsTruthArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ImgID == "" || a.Truth == "" || a.Seg1 == "" || a.Seg2 == "" {
		return nil, invalidParams("img_id, truth_path, seg1_path and seg2_path are required")
	}

	original, err := s.cache.Load(imaging.ImagePath(s.trainDir(a.Dir), a.ImgID))
	if err != nil {
		return nil, err
	}
	truth, err := s.cache.Load(a.Truth)
	if err != nil {
		return nil, err
	}
	seg1, err := s.cache.Load(a.Seg1)
	if err != nil {
		return nil, err
	}
	seg2, err := s.cache.Load(a.Seg2)
	if err != nil {
		return nil, err
	}

	fig, err := plot.SegVsTruth(original, truth, seg1, seg2, plot.Options{})
	if err != nil {
		return nil, err
	}
	if a.SavePath == "" {
		a.SavePath = filepath.Join(s.cfg.OutputDir, fmt.Sprintf("seg_vs_truth_img=%s.png", a.ImgID))
	}
	if err := imaging.Save(fig, a.SavePath); err != nil {
		return nil, err
	}
	b := fig.Bounds()
	return &FileResult{Path: a.SavePath, Width: b.Dx(), Height: b.Dy()}, nil
}

// === Run Log Handlers ===

type runlogAppendArgs struct {
	Img            string   `json:"img"`
	K              int      `json:"k"`
	T              int      `json:"t"`
	LogLik         float64  `json:"log_lik"`
	ExpectedLogLik *float64 `json:"expected_log_lik"`
	RuntimeSeconds float64  `json:"runtime_seconds"`
}

func (s *Server) handleRunlogAppend(args json.RawMessage) (interface{}, error) {
	var a runlogAppendArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Img == "" {
		return nil, invalidParams("img is required")
	}
	rec := runlog.Record{
		Img:            a.Img,
		K:              a.K,
		T:              a.T,
		LogLik:         a.LogLik,
		ExpectedLogLik: a.ExpectedLogLik,
		Time:           s.now(),
		Runtime:        time.Duration(a.RuntimeSeconds * float64(time.Second)),
	}
	path, err := runlog.Append(s.cfg.LogDir, rec)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{"path": path, "record": newRecordResult(rec)}
	if rec.ExpectedLogLik != nil {
		out["expected_log_lik"] = Float(*rec.ExpectedLogLik)
	}
	return out, nil
}

type runlogRecordResult struct {
	Img            string  `json:"img"`
	K              int     `json:"k"`
	T              int     `json:"t"`
	LogLik         float64 `json:"log_lik"`
	Datetime       string  `json:"datetime"`
	RuntimeSeconds float64 `json:"runtime_seconds"`
}

func newRecordResult(r runlog.Record) runlogRecordResult {
	return runlogRecordResult{
		Img:            r.Img,
		K:              r.K,
		T:              r.T,
		LogLik:         r.LogLik,
		Datetime:       r.Time.Format(runlog.TimeLayout),
		RuntimeSeconds: r.Runtime.Seconds(),
	}
}

func (s *Server) handleRunlogRead(args json.RawMessage) (interface{}, error) {
	var a struct {
		Img string `json:"img"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	recs, err := runlog.Read(s.cfg.LogDir)
	if err != nil {
		return nil, err
	}

	out := make([]runlogRecordResult, 0, len(recs))
	for _, r := range recs {
		if a.Img != "" && r.Img != a.Img {
			continue
		}
		out = append(out, newRecordResult(r))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Datetime < out[j].Datetime })
	return map[string]interface{}{"records": out, "count": len(out)}, nil
}
