package training

// Template is a prebuilt, known-good architecture for one dataset. These
// exist so a client can skip hand-authoring a layer list for the common
// case and still land on something that trains.
type Template struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	DatasetID string      `json:"dataset_id"`
	Layers    []LayerSpec `json:"layers"`
}

var builtinTemplates = []Template{
	{
		ID:        "iris-mlp",
		Name:      "Small MLP",
		DatasetID: "iris",
		Layers: []LayerSpec{
			{Kind: LayerInput, Position: 0, Neurons: 4},
			{Kind: LayerHidden, Position: 1, Neurons: 16, Activation: "relu"},
			{Kind: LayerOutput, Position: 2, Neurons: 3, Activation: "softmax"},
		},
	},
	{
		ID:        "xor-mlp",
		Name:      "Two-layer regressor",
		DatasetID: "xor",
		Layers: []LayerSpec{
			{Kind: LayerInput, Position: 0, Neurons: 2},
			{Kind: LayerHidden, Position: 1, Neurons: 8, Activation: "tanh"},
			{Kind: LayerHidden, Position: 2, Neurons: 8, Activation: "relu"},
			{Kind: LayerOutput, Position: 3, Neurons: 1, Activation: "linear"},
		},
	},
	{
		ID:        "shapes-cnn",
		Name:      "Small CNN",
		DatasetID: "shapes",
		Layers: []LayerSpec{
			{Kind: LayerInput, Position: 0},
			{Kind: LayerConv2D, Position: 1, Filters: 8, Kernel: 3, Activation: "relu"},
			{Kind: LayerMaxPool2D, Position: 2, Pool: 2},
			{Kind: LayerFlatten, Position: 3},
			{Kind: LayerHidden, Position: 4, Neurons: 32, Activation: "relu"},
			{Kind: LayerOutput, Position: 5, Neurons: 3, Activation: "softmax"},
		},
	},
}

// ListTemplates returns every template, or only those for datasetID when
// it is non-empty.
func ListTemplates(datasetID string) []Template {
	if datasetID == "" {
		return builtinTemplates
	}
	out := make([]Template, 0, len(builtinTemplates))
	for _, t := range builtinTemplates {
		if t.DatasetID == datasetID {
			out = append(out, t)
		}
	}
	return out
}

// GetTemplate returns the named template, or ok=false if unknown.
func GetTemplate(id string) (Template, bool) {
	for _, t := range builtinTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}
