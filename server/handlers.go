package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb/geojson"

	"github.com/wiless/coverage"
	"github.com/wiless/coverage/antenna"
	"github.com/wiless/coverage/deployment"
	"github.com/wiless/coverage/pathloss"
)

const maxBodyBytes = 4 << 20

const (
	headerSequence   = "X-Coverage-Sequence"
	headerSuperseded = "X-Coverage-Superseded"
)

type errorResponse struct {
	Error string `json:"error"`
}

type towerError struct {
	Index   int    `json:"index"`
	TowerID string `json:"towerId"`
	Error   string `json:"error"`
}

type coverageResponse struct {
	Rasters   map[string]*geojson.FeatureCollection `json:"rasters"`
	Summaries []coverage.Summary                    `json:"summaries"`
	Errors    []towerError                          `json:"errors"`
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("writing response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	s.log.WithError(err).WithField("code", code).Debug("request failed")
	s.writeJSON(w, code, errorResponse{Error: err.Error()})
}

// readBody checks the request against v and returns it as a generic document.
func readBody(r *http.Request, v *validator) (map[string]interface{}, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if err := v.validate(data); err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return doc, nil
}

// requestGrid overlays the request's grid object on the server default.
// The cell limit always stays the server's.
func (s *Server) requestGrid(doc map[string]interface{}) (deployment.GridConfig, error) {
	grid := s.grid
	if raw, ok := doc["grid"]; ok && raw != nil {
		if err := deployment.DecodeGrid(raw, &grid); err != nil {
			return grid, fmt.Errorf("%w: %v", errInvalidBody, err)
		}
		grid.MaxCells = s.grid.MaxCells
	}
	if err := grid.Validate(); err != nil {
		return grid, err
	}
	return grid, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	doc, err := readBody(r, s.batch)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	grid, err := s.requestGrid(doc)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	records, _ := doc["towers"].([]interface{})

	// A record that cannot be decoded fails alone, like a tower that cannot
	// be sampled. position maps decoded towers back to their record.
	towers := make([]deployment.Tower, 0, len(records))
	position := make([]int, 0, len(records))
	var rejected []coverage.TowerError
	for indx, rec := range records {
		t, err := deployment.DecodeTower(rec)
		if err != nil {
			rejected = append(rejected, coverage.TowerError{Index: indx, TowerID: recordID(rec, indx), Err: err})
			continue
		}
		towers = append(towers, t)
		position = append(position, indx)
	}

	result := s.service.CalculateCoverage(r.Context(), towers, grid)
	for indx := range result.Errors {
		result.Errors[indx].Index = position[result.Errors[indx].Index]
	}
	result.Errors = append(result.Errors, rejected...)
	sort.SliceStable(result.Errors, func(i, j int) bool { return result.Errors[i].Index < result.Errors[j].Index })

	byID := make(map[string]deployment.Tower, len(towers))
	for _, t := range towers {
		if _, ok := byID[t.ID]; !ok {
			byID[t.ID] = t
		}
	}
	resp := coverageResponse{
		Rasters:   result.FeatureCollections(),
		Summaries: make([]coverage.Summary, 0, len(result.Rasters)),
		Errors:    make([]towerError, 0, len(result.Errors)),
	}
	for _, raster := range result.Rasters {
		resp.Summaries = append(resp.Summaries, raster.Summarize(byID[raster.TowerID], grid))
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, towerError{Index: e.Index, TowerID: e.TowerID, Error: e.Err.Error()})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// recordID names a tower record that could not be decoded.
func recordID(rec interface{}, indx int) string {
	if m, ok := rec.(map[string]interface{}); ok {
		if id, ok := m["id"].(string); ok && id != "" {
			return id
		}
	}
	return fmt.Sprintf("towers[%d]", indx)
}

func (s *Server) handleTowerCoverage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	doc, err := readBody(r, s.single)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	grid, err := s.requestGrid(doc)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	towers, err := deployment.DecodeTowers([]interface{}{doc["tower"]})
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	tower := towers[0]
	tower.ID = id

	c, err := s.recomputer.Recompute(r.Context(), tower, grid)
	w.Header().Set(headerSequence, strconv.FormatUint(c.Sequence, 10))
	w.Header().Set(headerSuperseded, strconv.FormatBool(!c.Current))
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c.Raster.FeatureCollection())
}

// decodeInto fills v, which carries its defaults, from the request body.
func decodeInto(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

type fsplRequest struct {
	TxPowerDbm  float64 `json:"Ptx"`
	TxGainDbi   float64 `json:"Gtx"`
	RxGainDbi   float64 `json:"Grx"`
	FreqMHz     float64 `json:"f"`
	DistanceKm  float64 `json:"distance_km"`
	ExtraLossDb float64 `json:"L_extra"`
}

type fsplResponse struct {
	FreeSpaceLossDb float64 `json:"L_fsl"`
	ReceivedDbm     float64 `json:"Prx"`
}

func (s *Server) handleFSPL(w http.ResponseWriter, r *http.Request) {
	var req fsplRequest
	if err := decodeInto(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	fsl, err := pathloss.FreeSpaceLoss(req.DistanceKm, req.FreqMHz)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fsplResponse{
		FreeSpaceLossDb: fsl,
		ReceivedDbm:     req.TxPowerDbm + req.TxGainDbi + req.RxGainDbi - fsl - req.ExtraLossDb,
	})
}

type okumuraHataRequest struct {
	FreqMHz   float64 `json:"f"`
	BSHeight  float64 `json:"h_b"`
	MHeight   float64 `json:"h_m"`
	MaxLossDb float64 `json:"L_fsl_max"`
	LargeCity bool    `json:"largeCity"`
}

func (s *Server) handleOkumuraHata(w http.ResponseWriter, r *http.Request) {
	req := okumuraHataRequest{MHeight: pathloss.DefaultMobileHeight}
	if err := decodeInto(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	model := pathloss.ModelSetting{
		FreqMHz:      req.FreqMHz,
		BSHeight:     req.BSHeight,
		MobileHeight: req.MHeight,
		LargeCity:    req.LargeCity,
	}
	ranges, err := model.Ranges(req.MaxLossDb)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ranges)
}

type antennaGainRequest struct {
	GainDb float64 `json:"G0"`
	Theta  float64 `json:"theta"`
	K      float64 `json:"k"`
	Theta3 float64 `json:"theta_3"`
	Theta4 float64 `json:"theta_4"`
}

type antennaGainResponse struct {
	GainDbi float64 `json:"Ganancia_dBi"`
}

func (s *Server) handleAntennaGain(w http.ResponseWriter, r *http.Request) {
	req := antennaGainRequest{Theta3: 10, Theta4: 5}
	if err := decodeInto(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Theta3 <= 0 {
		s.writeError(w, http.StatusUnprocessableEntity, errors.New("theta_3 must be > 0"))
		return
	}
	s.writeJSON(w, http.StatusOK, antennaGainResponse{
		GainDbi: antenna.OmniGain(req.Theta, req.GainDb, req.K, req.Theta3, req.Theta4),
	})
}

func (s *Server) handleFullLinkBudget(w http.ResponseWriter, r *http.Request) {
	var req pathloss.LinkBudgetInput
	if err := decodeInto(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	budget, err := req.Evaluate()
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.writeJSON(w, http.StatusOK, budget)
}
