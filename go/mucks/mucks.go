package mucks

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

type Mucks struct {
	Mux         *http.ServeMux
	HandlerFunc http.HandlerFunc
}

func NotFoundHandleFunc(w http.ResponseWriter, _ *http.Request) {
	JsonError(w, NewNotFound())
}

func NewMucks() *Mucks {
	m := http.NewServeMux()
	m.HandleFunc("/", NotFoundHandleFunc)
	return &Mucks{
		Mux:         m,
		HandlerFunc: m.ServeHTTP,
	}
}

func (m *Mucks) Add(middleware Middleware) {
	m.HandlerFunc = middleware.Wrap(m.HandlerFunc)
}

func (m *Mucks) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	m.Mux.HandleFunc(pattern, handler)
}

func (m *Mucks) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.HandlerFunc(w, r)
}

const ContentType = "Content-Type"
const ApplicationJsonContentType = "application/json; charset=utf-8"

// JsonError writes problem as a JSON error response using its StatusCode.
func JsonError(w http.ResponseWriter, problem Problem) {
	if problem.Instance == "" {
		problem.Instance = uuid.NewString()
	}
	w.Header().Set(ContentType, ApplicationJsonContentType)
	w.WriteHeader(problem.StatusCode)
	json.NewEncoder(w).Encode(problem)
}

// JsonOk writes body as a 200 response with the JSON content type set.
func JsonOk(w http.ResponseWriter, body any) {
	w.Header().Set(ContentType, ApplicationJsonContentType)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}
