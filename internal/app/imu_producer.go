package app

import (
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/inertial_node/internal/config"
	"github.com/relabs-tech/inertial_node/internal/imu"
	"github.com/relabs-tech/inertial_node/internal/orientation"
	"github.com/relabs-tech/inertial_node/internal/sensors"
)

// sampleFunc adapts a read function to imu.SampleSource.
type sampleFunc func() (imu.Sample, error)

func (f sampleFunc) Next() (imu.Sample, error) { return f() }

// recorder keeps the last sample read through it.
type recorder struct {
	src  imu.SampleSource
	last imu.Sample
}

func (r *recorder) Next() (imu.Sample, error) {
	s, err := r.src.Next()
	if err == nil {
		r.last = s
	}
	return s, err
}

// fuse returns a pose source over src and the recorder holding the sample
// each pose was computed from.
func fuse(src imu.SampleSource) (orientation.Source, *recorder) {
	rec := &recorder{src: src}
	return orientation.NewIMUSource(rec), rec
}

// producer reads one sample per tick and publishes it with the fused pose.
type producer struct {
	pub  publisher
	cfg  *config.Config
	tilt func() (bool, error) // nil when tilt detection is off

	poses   orientation.Source
	samples *recorder
	pose    orientation.Pose
}

func newProducer(pub publisher, cfg *config.Config, src imu.SampleSource, tilt func() (bool, error)) *producer {
	poses, samples := fuse(src)
	return &producer{pub: pub, cfg: cfg, tilt: tilt, poses: poses, samples: samples}
}

func (p *producer) tick() error {
	pose, err := p.poses.Next()
	if err != nil {
		return err
	}
	p.pose = pose
	s := p.samples.last

	if err := publishJSON(p.pub, p.cfg.TopicIMU, true, s); err != nil {
		return err
	}
	if err := publishJSON(p.pub, p.cfg.TopicPose, true, pose); err != nil {
		return err
	}

	if p.tilt == nil {
		return nil
	}
	tilted, err := p.tilt()
	if err != nil {
		return fmt.Errorf("tilt status: %w", err)
	}
	if tilted {
		log.Printf("imu_producer: tilt detected on %s", s.Source)
		return publishJSON(p.pub, p.cfg.TopicTilt, false, imu.TiltEvent{Source: s.Source, Time: s.Time})
	}
	return nil
}

// RunIMUProducer samples the ICM-42670 and publishes readings, the fused
// pose and tilt events until interrupted.
func RunIMUProducer() error {
	cfg := config.Get()

	mgr := sensors.GetIMUManager()
	if err := mgr.Init(cfg); err != nil {
		return fmt.Errorf("initialize IMU: %w", err)
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Printf("imu_producer: closing IMU: %v", err)
		}
	}()
	log.Printf("imu_producer: sampling %s every %dms", mgr.Name(), cfg.IMUSampleInterval)

	var tilt func() (bool, error)
	if cfg.IMUTiltDetect {
		tilt = mgr.TiltDetected
	}
	return runProducer(newProducer(nil, cfg, sampleFunc(mgr.ReadSample), tilt), cfg.MQTTClientIDProducer)
}

// RunMockProducer publishes synthetic samples in the same format as
// RunIMUProducer, for running without hardware.
func RunMockProducer() error {
	cfg := config.Get()
	log.Println("imu_producer: using mock sample source")
	return runProducer(newProducer(nil, cfg, orientation.NewMockSampleSource(), nil), cfg.MQTTClientIDProducer+"-mock")
}

func runProducer(p *producer, clientID string) error {
	client, err := connectMQTT(p.cfg.MQTTBroker, clientID)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	p.pub = client

	ticker := time.NewTicker(time.Duration(p.cfg.IMUSampleInterval) * time.Millisecond)
	defer ticker.Stop()
	stop := interrupted()

	logEvery := time.Duration(p.cfg.ConsoleLogInterval) * time.Millisecond
	var lastLog time.Time
	for {
		select {
		case sig := <-stop:
			log.Printf("imu_producer: %v, stopping", sig)
			return nil
		case t := <-ticker.C:
			if err := p.tick(); err != nil {
				log.Printf("imu_producer: %v", err)
				continue
			}
			if t.Sub(lastLog) >= logEvery {
				lastLog = t
				log.Printf("%s tick: pose R=%.2f P=%.2f Y=%.2f",
					t.Format(time.RFC3339), p.pose.Roll, p.pose.Pitch, p.pose.Yaw)
			}
		}
	}
}
