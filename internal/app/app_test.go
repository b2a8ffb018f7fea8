package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial_node/icm42670"
	"github.com/relabs-tech/inertial_node/icm42670/icm42670test"
	"github.com/relabs-tech/inertial_node/internal/config"
	"github.com/relabs-tech/inertial_node/internal/imu"
	"github.com/relabs-tech/inertial_node/internal/orientation"
	"github.com/relabs-tech/inertial_node/internal/sensors"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Error() error                   { return nil }

func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakePublisher struct {
	msgs []published
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.msgs = append(f.msgs, published{topic, retained, payload.([]byte)})
	return doneToken{}
}

func newSimManager(t *testing.T, cfg *config.Config) (*icm42670test.Sim, *sensors.IMUManager) {
	t.Helper()
	sim := icm42670test.New(cfg.IMUI2CAddr)
	mgr := sensors.NewIMUManager(func(c *config.Config) (*sensors.IMUSource, error) {
		return sensors.NewIMUSourceOnBus(sim, c)
	})
	if err := mgr.Init(cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return sim, mgr
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
	return v
}

func TestProducerTick(t *testing.T) {
	cfg := config.Default()
	cfg.IMUAccelRange = icm42670.G2
	cfg.IMUTiltDetect = true
	sim, mgr := newSimManager(t, cfg)
	sim.SetAccel(0, 16384, 16384)

	pub := &fakePublisher{}
	p := newProducer(pub, cfg, sampleFunc(mgr.ReadSample), mgr.TiltDetected)
	if err := p.tick(); err != nil {
		t.Fatal(err)
	}
	if len(pub.msgs) != 2 {
		t.Fatalf("%d messages, want sample and pose", len(pub.msgs))
	}
	if pub.msgs[0].topic != cfg.TopicIMU || pub.msgs[1].topic != cfg.TopicPose {
		t.Fatalf("topics %q %q", pub.msgs[0].topic, pub.msgs[1].topic)
	}
	if !pub.msgs[0].retained || !pub.msgs[1].retained {
		t.Error("sample and pose should be retained")
	}
	s := decode[imu.Sample](t, pub.msgs[0].payload)
	if s.Ay != 16384 || s.AccelG[2] != 1 || s.Source != mgr.Name() {
		t.Errorf("sample %+v", s)
	}
	pose := decode[orientation.Pose](t, pub.msgs[1].payload)
	if pose.Roll < 44.99 || pose.Roll > 45.01 {
		t.Errorf("pose %+v", pose)
	}

	sim.Tilt()
	if err := p.tick(); err != nil {
		t.Fatal(err)
	}
	if len(pub.msgs) != 5 {
		t.Fatalf("%d messages after tilt", len(pub.msgs))
	}
	last := pub.msgs[4]
	if last.topic != cfg.TopicTilt || last.retained {
		t.Fatalf("tilt message %q retained=%t", last.topic, last.retained)
	}
	if e := decode[imu.TiltEvent](t, last.payload); e.Source != mgr.Name() || e.Time.IsZero() {
		t.Errorf("tilt event %+v", e)
	}

	if err := p.tick(); err != nil {
		t.Fatal(err)
	}
	if len(pub.msgs) != 7 {
		t.Fatalf("tilt event repeated: %d messages", len(pub.msgs))
	}
}

func TestProducerReadError(t *testing.T) {
	pub := &fakePublisher{}
	p := newProducer(pub, config.Default(), sampleFunc(func() (imu.Sample, error) {
		return imu.Sample{}, sensors.ErrNoIMU
	}), nil)
	if err := p.tick(); !errors.Is(err, sensors.ErrNoIMU) {
		t.Fatalf("got %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Fatalf("published %d messages on error", len(pub.msgs))
	}
}

func TestProducerMockSource(t *testing.T) {
	cfg := config.Default()
	pub := &fakePublisher{}
	p := newProducer(pub, cfg, orientation.NewMockSampleSource(), nil)
	for i := 0; i < 3; i++ {
		if err := p.tick(); err != nil {
			t.Fatal(err)
		}
	}
	if len(pub.msgs) != 6 {
		t.Fatalf("%d messages", len(pub.msgs))
	}
	if s := decode[imu.Sample](t, pub.msgs[4].payload); s.Source != "mock" {
		t.Errorf("source %q", s.Source)
	}
}

func TestConsoleHandlers(t *testing.T) {
	cfg := config.Default()
	var out bytes.Buffer
	h := consoleHandlers(cfg, &out)

	h[cfg.TopicPose]([]byte(`{"roll":1.5,"pitch":-2,"yaw":359}`))
	if got, want := out.String(), "[POSE] ROLL=  1.50  PITCH= -2.00  YAW=359.00\n"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	out.Reset()
	h[cfg.TopicIMU]([]byte(`{"accel_g":[0,0.5,1],"gyro_dps":[10,0,-20],"temp_c":30}`))
	if !strings.HasPrefix(out.String(), "[IMU]") || !strings.Contains(out.String(), "T=30.00C") {
		t.Fatalf("imu line %q", out.String())
	}

	out.Reset()
	h[cfg.TopicTilt]([]byte(`{"source":"I2C1@0x68","time":"2026-01-02T03:04:05Z"}`))
	if got, want := out.String(), "[TILT] I2C1@0x68 at 2026-01-02T03:04:05Z\n"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	out.Reset()
	h[cfg.TopicPose]([]byte("not json"))
	if out.Len() != 0 {
		t.Fatalf("printed %q for a malformed payload", out.String())
	}
}

func TestMockConsoleStep(t *testing.T) {
	var out bytes.Buffer
	poses, samples := fuse(orientation.NewMockSampleSource())
	for i := 0; i < 2; i++ {
		if err := mockConsoleStep(&out, poses, samples); err != nil {
			t.Fatal(err)
		}
	}
	if n := strings.Count(out.String(), "[IMU]"); n != 2 {
		t.Errorf("%d sample lines", n)
	}
	if n := strings.Count(out.String(), "[POSE]"); n != 2 {
		t.Errorf("%d pose lines", n)
	}
	if samples.last.Time.IsZero() || samples.last.Source != "mock" {
		t.Errorf("last sample %+v", samples.last)
	}
}

func TestWebAPI(t *testing.T) {
	cfg := config.Default()
	state := &liveState{}
	mux := newWebMux(state, t.TempDir())

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	for _, path := range []string{"/api/orientation", "/api/imu", "/api/tilt"} {
		if rec := get(path); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s before data: %d", path, rec.Code)
		}
	}

	h := state.handlers(cfg)
	h[cfg.TopicPose]([]byte(`{"roll":10,"pitch":20,"yaw":30}`))
	h[cfg.TopicIMU]([]byte(`{"source":"sim","az":16384,"temp_c":25}`))
	h[cfg.TopicTilt]([]byte(`garbage`))

	rec := get("/api/orientation")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("orientation: %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if p := decode[orientation.Pose](t, rec.Body.Bytes()); p != (orientation.Pose{Roll: 10, Pitch: 20, Yaw: 30}) {
		t.Errorf("pose %+v", p)
	}

	rec = get("/api/imu")
	if s := decode[imu.Sample](t, rec.Body.Bytes()); rec.Code != http.StatusOK || s.Az != 16384 || s.Source != "sim" {
		t.Errorf("imu: %d %+v", rec.Code, s)
	}

	if rec := get("/api/tilt"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("tilt after malformed payload: %d", rec.Code)
	}
}

func TestIMUDataHandler(t *testing.T) {
	cfg := config.Default()
	sim, mgr := newSimManager(t, cfg)
	sim.SetAccel(1, 2, 3)

	rec := httptest.NewRecorder()
	NewIMUDataHandler(mgr)(rec, httptest.NewRequest(http.MethodGet, "/api/imu", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if s := decode[imu.Sample](t, rec.Body.Bytes()); s.Ax != 1 || s.Az != 3 {
		t.Errorf("sample %+v", s)
	}

	rec = httptest.NewRecorder()
	NewIMUDataHandler(sensors.NewIMUManager(nil))(rec, httptest.NewRequest(http.MethodGet, "/api/imu", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("uninitialized manager: %d", rec.Code)
	}
	if body := decode[map[string]string](t, rec.Body.Bytes()); body["error"] == "" {
		t.Errorf("body %v", body)
	}
}

func TestDisplayLines(t *testing.T) {
	state := &liveState{}
	for _, content := range []string{"imu", "orientation", "temperature"} {
		lines, err := displayLines(content, state)
		if err != nil {
			t.Fatal(err)
		}
		if lines[len(lines)-1] != "Waiting..." {
			t.Errorf("%s without data: %q", content, lines)
		}
	}
	if _, err := displayLines("gps", state); err == nil {
		t.Error("unknown content accepted")
	}

	state.setPose(orientation.Pose{Roll: 10, Pitch: -5.25, Yaw: 270})
	lines, _ := displayLines("orientation", state)
	if want := []string{"R:   10.0", "P:   -5.2", "Y:  270.0"}; strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("orientation lines %q", lines)
	}

	state.setSample(imu.Sample{TempC: 31.25})
	state.setTilt(imu.TiltEvent{Time: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)})
	lines, _ = displayLines("temperature", state)
	if len(lines) != 3 || lines[0] != "T:  31.2 C" || lines[2] != "03:04:05" {
		t.Errorf("temperature lines %q", lines)
	}
}

func TestRenderLines(t *testing.T) {
	lit := func(pix []byte) bool {
		for _, b := range pix {
			if b != 0 {
				return true
			}
		}
		return false
	}
	img := renderLines(nil)
	if img.Bounds().Dx() != displayWidth || img.Bounds().Dy() != displayHeight {
		t.Fatalf("bounds %v", img.Bounds())
	}
	if lit(img.Pix) {
		t.Error("blank frame has pixels on")
	}
	if !lit(renderLines([]string{"R: 1.0"}).Pix) {
		t.Error("text not drawn")
	}
}
