package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/relabs-tech/inertial_node/internal/config"
	"github.com/relabs-tech/inertial_node/internal/imu"
	"github.com/relabs-tech/inertial_node/internal/orientation"
)

// liveState keeps the last message of each producer topic.
type liveState struct {
	mu sync.RWMutex

	pose     orientation.Pose
	havePose bool

	sample     imu.Sample
	haveSample bool

	tilt     imu.TiltEvent
	haveTilt bool
}

func (s *liveState) setPose(p orientation.Pose) {
	s.mu.Lock()
	s.pose, s.havePose = p, true
	s.mu.Unlock()
}

func (s *liveState) setSample(v imu.Sample) {
	s.mu.Lock()
	s.sample, s.haveSample = v, true
	s.mu.Unlock()
}

func (s *liveState) setTilt(e imu.TiltEvent) {
	s.mu.Lock()
	s.tilt, s.haveTilt = e, true
	s.mu.Unlock()
}

func (s *liveState) handlers(cfg *config.Config) map[string]func([]byte) {
	return map[string]func([]byte){
		cfg.TopicPose: decodeInto("web: pose", s.setPose),
		cfg.TopicIMU:  decodeInto("web: imu", s.setSample),
		cfg.TopicTilt: decodeInto("web: tilt", s.setTilt),
	}
}

// serveLatest encodes the value get returns, or 503 before the first message.
func (s *liveState) serveLatest(get func() (interface{}, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		v, ok := get()
		s.mu.RUnlock()

		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Printf("json encode error: %v", err)
		}
	}
}

func newWebMux(s *liveState, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/orientation", s.serveLatest(func() (interface{}, bool) { return s.pose, s.havePose }))
	mux.HandleFunc("/api/imu", s.serveLatest(func() (interface{}, bool) { return s.sample, s.haveSample }))
	mux.HandleFunc("/api/tilt", s.serveLatest(func() (interface{}, bool) { return s.tilt, s.haveTilt }))
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

// RunWeb serves the latest pose, sample and tilt event received over MQTT
// as JSON, plus the static files under ./web.
func RunWeb() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	state := &liveState{}
	for topic, handle := range state.handlers(cfg) {
		if err := subscribe(client, topic, handle); err != nil {
			return err
		}
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, newWebMux(state, "web"))
}
