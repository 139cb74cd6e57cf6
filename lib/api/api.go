package api

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"net/http"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/fosdem/vrsink/lib/config"
	"github.com/fosdem/vrsink/lib/metrics"
	"github.com/fosdem/vrsink/lib/sink"
	"github.com/fosdem/vrsink/lib/stats"
	"github.com/fosdem/vrsink/lib/video"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fosdem/vrsink/lib/api/docs"
)

// Sink is the part of *sink.Sink the API controls.
type Sink interface {
	Properties() sink.Properties
	SetProperties(p sink.Properties) error
	Status() sink.Status
	DisplayedFrame() *video.Frame
}

// ImageSource is implemented by sources whose picture can be replaced.
type ImageSource interface {
	Image() image.Image
	SetImage(img image.Image)
}

type Api struct {
	srv  http.Server
	mux  *http.ServeMux
	cfg  *config.ApiCfg
	sink Sink

	Stats *stats.Stats
	// ImageSource is optional; without it the source media endpoint 404s.
	ImageSource ImageSource
	// OnKill is called when a client asks for shutdown.
	OnKill func()

	wsMu      sync.Mutex
	wsClients map[*websocket.Conn]*sync.Mutex
}

func New(cfg *config.ApiCfg, s Sink, st *stats.Stats) *Api {
	a := &Api{
		cfg:       cfg,
		mux:       http.NewServeMux(),
		sink:      s,
		Stats:     st,
		wsClients: make(map[*websocket.Conn]*sync.Mutex),
	}
	a.srv.Addr = cfg.Bind
	a.srv.Handler = a.mux
	a.routes()
	return a
}

func (a *Api) routes() {
	if a.cfg.EnableProfiler {
		a.mux.HandleFunc("/prof", a.profileCPU)
	}
	a.mux.HandleFunc("/api/kill", a.suicide)
	a.mux.HandleFunc("/api/stats", a.getStats)
	a.mux.HandleFunc("/api/status", a.getStatus)
	a.mux.HandleFunc("GET /api/properties", a.getProperties)
	a.mux.HandleFunc("PUT /api/properties", a.putProperties)
	a.mux.HandleFunc("/api/ws", a.handleWebsocket)
	a.mux.HandleFunc("/api/media/sink", a.handleMediaSink)
	a.mux.HandleFunc("/api/media/sink/{format}", a.handleMediaSink)
	a.mux.HandleFunc("/api/media/source", a.handleMediaSource)
	a.mux.HandleFunc("/api/media/source/{format}", a.handleMediaSource)
	a.mux.Handle("/metrics", metrics.Handler())
	a.mux.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (a *Api) Handler() http.Handler {
	return a.mux
}

func (a *Api) Serve() error {
	return a.srv.ListenAndServe()
}

func (a *Api) Shutdown(ctx context.Context) error {
	return a.srv.Shutdown(ctx)
}

func (a *Api) profileCPU(w http.ResponseWriter, _ *http.Request) {
	err := pprof.StartCPUProfile(w)
	if err != nil {
		http.Error(w, fmt.Sprintf("Could not start CPU profile: %s", err), http.StatusInternalServerError)
		return
	}
	time.Sleep(10 * time.Second)
	pprof.StopCPUProfile()
}

// @Summary	Shut down the sink
// @Router		/api/kill [post]
// @Tags		base
// @Success	200
func (a *Api) suicide(w http.ResponseWriter, _ *http.Request) {
	log.Printf("shutting down as per api request")
	if a.OnKill != nil {
		a.OnKill()
	}
	writeOK(w)
}

// @Summary	Render and upload statistics
// @Router		/api/stats [get]
// @Tags		base
// @Produce	json
// @Success	200	{object}	stats.Snapshot
func (a *Api) getStats(w http.ResponseWriter, _ *http.Request) {
	a.Stats.Update()
	writeJSON(w, a.Stats.Snapshot())
}

// @Summary	Negotiated formats, state and window geometry of the sink
// @Router		/api/status [get]
// @Tags		base
// @Produce	json
// @Success	200	{object}	sink.Status
func (a *Api) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, a.sink.Status())
}

// @Summary	Current sink properties
// @Router		/api/properties [get]
// @Tags		properties
// @Produce	json
// @Success	200	{object}	sink.Properties
func (a *Api) getProperties(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, a.sink.Properties())
}

// @Summary	Change sink properties. Fields left out keep their value.
// @Router		/api/properties [put]
// @Tags		properties
// @Accept		json
// @Produce	json
// @Param		properties	body	sink.Properties	true	"Properties to change"
// @Success	200	{object}	sink.Properties
// @Failure	400	{string}	string	"Could not decode json request"
// @Failure	422	{string}	string	"The properties were rejected by the sink"
func (a *Api) putProperties(w http.ResponseWriter, req *http.Request) {
	props := a.sink.Properties()
	if err := json.NewDecoder(req.Body).Decode(&props); err != nil {
		http.Error(w, fmt.Sprintf("could not decode json request: %s", err), http.StatusBadRequest)
		return
	}
	if err := a.sink.SetProperties(props); err != nil {
		http.Error(w, fmt.Sprintf("could not set properties: %s", err), http.StatusUnprocessableEntity)
		return
	}
	current := a.sink.Properties()
	log.Printf("sink properties changed through the api")
	a.broadcast(event{Event: "properties", Data: current})
	writeJSON(w, current)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("could not write response: %s\n", err.Error())
	}
}

func writeOK(w http.ResponseWriter) {
	_, err := fmt.Fprintf(w, "\"ok\"\n")
	if err != nil {
		log.Printf("could not write response: %s\n", err.Error())
	}
}

// ServeInBackground starts the API when cfg is set and returns nil otherwise.
// opts run before the server starts.
func ServeInBackground(cfg *config.ApiCfg, s Sink, st *stats.Stats, opts ...func(*Api)) *Api {
	if cfg == nil {
		return nil
	}
	a := New(cfg, s, st)
	for _, opt := range opts {
		opt(a)
	}
	log.Printf("starting web server on %s\n", cfg.Bind)
	go func() {
		err := a.Serve()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("could not start web server: %s", err)
		}
	}()
	return a
}
