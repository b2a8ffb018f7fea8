package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/relabs-tech/inertial_node/internal/config"
	"github.com/relabs-tech/inertial_node/internal/imu"
	"github.com/relabs-tech/inertial_node/internal/orientation"
)

func formatPose(p orientation.Pose) string {
	return fmt.Sprintf("[POSE] ROLL=%6.2f  PITCH=%6.2f  YAW=%6.2f", p.Roll, p.Pitch, p.Yaw)
}

func formatSample(s imu.Sample) string {
	return fmt.Sprintf("[IMU]  ax=%6.3f ay=%6.3f az=%6.3f g | gx=%8.2f gy=%8.2f gz=%8.2f dps | T=%5.2fC",
		s.AccelG[0], s.AccelG[1], s.AccelG[2],
		s.GyroDPS[0], s.GyroDPS[1], s.GyroDPS[2],
		s.TempC)
}

func formatTilt(e imu.TiltEvent) string {
	return fmt.Sprintf("[TILT] %s at %s", e.Source, e.Time.Format(time.RFC3339))
}

// consoleHandlers maps each topic of cfg to a handler printing to out.
func consoleHandlers(cfg *config.Config, out io.Writer) map[string]func([]byte) {
	return map[string]func([]byte){
		cfg.TopicPose: decodeInto("console: pose", func(p orientation.Pose) {
			fmt.Fprintln(out, formatPose(p))
		}),
		cfg.TopicIMU: decodeInto("console: imu", func(s imu.Sample) {
			fmt.Fprintln(out, formatSample(s))
		}),
		cfg.TopicTilt: decodeInto("console: tilt", func(e imu.TiltEvent) {
			fmt.Fprintln(out, formatTilt(e))
		}),
	}
}

// RunConsoleMQTT prints every message the producer publishes until
// interrupted.
func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	for topic, handle := range consoleHandlers(cfg, os.Stdout) {
		if err := subscribe(client, topic, handle); err != nil {
			return err
		}
	}

	log.Printf("console: %v, exiting", <-interrupted())
	return nil
}
