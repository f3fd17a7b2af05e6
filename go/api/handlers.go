package api

import (
	"net/http"

	"github.com/muchq/moonbase/go/mucks"
	"github.com/muchq/moonbase/go/training"
)

func (a *Api) ListDatasets(w http.ResponseWriter, r *http.Request) {
	mucks.JsonOk(w, a.Datasets.List())
}

func (a *Api) GetDataset(w http.ResponseWriter, r *http.Request) {
	spec, ok := a.Datasets.Get(pathParam(r, "id"))
	if !ok {
		mucks.JsonError(w, mucks.NewNotFound())
		return
	}
	mucks.JsonOk(w, spec)
}

type previewResponse struct {
	Features [][]float64 `json:"features"`
	Labels   [][]float64 `json:"labels"`
}

func (a *Api) PreviewDataset(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	provider, ok := a.Datasets.Provider(id)
	if !ok {
		mucks.JsonError(w, mucks.NewNotFound())
		return
	}
	n := queryInt(r, "num_samples", 10)
	if n < 1 {
		n = 1
	}
	if n > 100 {
		n = 100
	}

	data, err := provider.Load(n)
	if err != nil {
		mucks.JsonError(w, mucks.NewBadRequest(err.Error()))
		return
	}

	rows := data.XTrain.Shape[0]
	xFeatures := data.XTrain.Shape[1]
	yFeatures := data.YTrain.Shape[1]

	resp := previewResponse{
		Features: make([][]float64, rows),
		Labels:   make([][]float64, rows),
	}
	for i := 0; i < rows; i++ {
		resp.Features[i] = append([]float64(nil), data.XTrain.Data[i*xFeatures:(i+1)*xFeatures]...)
		resp.Labels[i] = append([]float64(nil), data.YTrain.Data[i*yFeatures:(i+1)*yFeatures]...)
	}
	mucks.JsonOk(w, resp)
}

func (a *Api) ListTemplates(w http.ResponseWriter, r *http.Request) {
	datasetID := r.URL.Query().Get("dataset_id")
	mucks.JsonOk(w, training.ListTemplates(datasetID))
}

func (a *Api) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := training.GetTemplate(pathParam(r, "id"))
	if !ok {
		mucks.JsonError(w, mucks.NewNotFound())
		return
	}
	mucks.JsonOk(w, tmpl)
}

type createModelRequest struct {
	Name      string               `json:"name"`
	DatasetID string               `json:"dataset_id"`
	Layers    []training.LayerSpec `json:"layers"`
}

func (a *Api) CreateModel(w http.ResponseWriter, r *http.Request) {
	var req createModelRequest
	if err := decodeBody(r, &req); err != nil {
		mucks.JsonError(w, mucks.NewBadRequest("invalid request body"))
		return
	}
	if trimmed(req.Name) == "" || trimmed(req.DatasetID) == "" {
		mucks.JsonError(w, mucks.NewBadRequest("name and dataset_id are required"))
		return
	}
	spec, ok := a.Datasets.Get(req.DatasetID)
	if !ok {
		mucks.JsonError(w, mucks.NewNotFound())
		return
	}
	canonical, err := training.Validate(req.Layers, spec)
	if err != nil {
		mucks.JsonError(w, mucks.NewBadRequest(err.Error()))
		return
	}

	cfg := a.Models.Create(req.Name, req.DatasetID, canonical)
	w.Header().Set(mucks.ContentType, mucks.ApplicationJsonContentType)
	w.WriteHeader(http.StatusCreated)
	_ = writeJSON(w, cfg)
}

func (a *Api) GetModel(w http.ResponseWriter, r *http.Request) {
	cfg, ok := a.Models.Get(pathParam(r, "id"))
	if !ok {
		mucks.JsonError(w, mucks.NewNotFound())
		return
	}
	mucks.JsonOk(w, cfg)
}

type startTrainingRequest struct {
	DatasetID    string               `json:"dataset_id,omitempty"`
	Layers       []training.LayerSpec `json:"layers,omitempty"`
	Epochs       int                  `json:"epochs"`
	LearningRate float64              `json:"learning_rate"`
	BatchSize    int                  `json:"batch_size"`
	Optimizer    string               `json:"optimizer"`
	MaxSamples   int                  `json:"max_samples"`
}

type startTrainingResponse struct {
	SessionID           string                 `json:"session_id"`
	Status              training.SessionStatus `json:"status"`
	TotalEpochs         int                    `json:"total_epochs"`
	PollIntervalSeconds float64                `json:"poll_interval_seconds"`
}

func (a *Api) StartTraining(w http.ResponseWriter, r *http.Request) {
	modelID := pathParam(r, "model_id")

	var req startTrainingRequest
	if err := decodeBody(r, &req); err != nil {
		mucks.JsonError(w, mucks.NewBadRequest("invalid request body"))
		return
	}

	datasetID, layers := req.DatasetID, req.Layers
	if modelID == "new" {
		if trimmed(datasetID) == "" || layers == nil {
			mucks.JsonError(w, mucks.NewBadRequest("dataset_id and layers are required when model_id is \"new\""))
			return
		}
		spec, ok := a.Datasets.Get(datasetID)
		if !ok {
			mucks.JsonError(w, mucks.NewNotFound())
			return
		}
		canonical, err := training.Validate(layers, spec)
		if err != nil {
			mucks.JsonError(w, mucks.NewBadRequest(err.Error()))
			return
		}
		cfg := a.Models.Create("untitled", datasetID, canonical)
		modelID, layers = cfg.ID, canonical
	} else {
		cfg, ok := a.Models.Get(modelID)
		if !ok {
			mucks.JsonError(w, mucks.NewNotFound())
			return
		}
		if datasetID == "" {
			datasetID = cfg.DatasetID
		}
		if layers == nil {
			layers = cfg.Layers
		}
	}

	session, err := a.Manager.StartTraining(training.StartRequest{
		ModelID:   modelID,
		DatasetID: datasetID,
		Layers:    layers,
		Overrides: training.Hyperparameters{
			Epochs:       req.Epochs,
			LearningRate: req.LearningRate,
			BatchSize:    req.BatchSize,
			Optimizer:    req.Optimizer,
		},
		MaxSamples: req.MaxSamples,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set(mucks.ContentType, mucks.ApplicationJsonContentType)
	w.WriteHeader(http.StatusAccepted)
	_ = writeJSON(w, startTrainingResponse{
		SessionID:           session.SessionID,
		Status:              session.Status,
		TotalEpochs:         session.TotalEpochs,
		PollIntervalSeconds: session.PollIntervalHintSeconds,
	})
}

func (a *Api) SessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := pathParam(r, "session_id")
	sinceEpoch := queryInt(r, "since_epoch", 0)

	session, err := a.Manager.GetSession(sessionID, sinceEpoch)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	mucks.JsonOk(w, session)
}

func (a *Api) Pause(w http.ResponseWriter, r *http.Request) {
	session, err := a.Manager.Pause(pathParam(r, "session_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	mucks.JsonOk(w, session)
}

func (a *Api) Resume(w http.ResponseWriter, r *http.Request) {
	session, err := a.Manager.Resume(pathParam(r, "session_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	mucks.JsonOk(w, session)
}

func (a *Api) Stop(w http.ResponseWriter, r *http.Request) {
	session, err := a.Manager.Stop(pathParam(r, "session_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	mucks.JsonOk(w, session)
}

type predictRequest struct {
	Inputs []float64 `json:"inputs"`
}

func (a *Api) Predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := decodeBody(r, &req); err != nil {
		mucks.JsonError(w, mucks.NewBadRequest("invalid request body"))
		return
	}
	result, err := a.Manager.Predict(pathParam(r, "session_id"), req.Inputs)
	if err != nil {
		writeError(w, err)
		return
	}
	mucks.JsonOk(w, result)
}
