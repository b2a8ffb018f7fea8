package app

import (
	"fmt"
	"image"
	"log"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/inertial_node/internal/config"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 13
)

// displayLines returns the text shown for content given the latest data.
func displayLines(content string, s *liveState) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch content {
	case "imu":
		if !s.haveSample {
			return []string{"", "IMU", "Waiting..."}, nil
		}
		a, g := s.sample.AccelG, s.sample.GyroDPS
		return []string{
			fmt.Sprintf("A:%5.2f %5.2f", a[0], a[1]),
			fmt.Sprintf("  %5.2f g", a[2]),
			fmt.Sprintf("G:%6.1f %6.1f", g[0], g[1]),
			fmt.Sprintf("  %6.1f dps", g[2]),
		}, nil
	case "orientation":
		if !s.havePose {
			return []string{"", "Orientation", "Waiting..."}, nil
		}
		return []string{
			fmt.Sprintf("R: %6.1f", s.pose.Roll),
			fmt.Sprintf("P: %6.1f", s.pose.Pitch),
			fmt.Sprintf("Y: %6.1f", s.pose.Yaw),
		}, nil
	case "temperature":
		if !s.haveSample {
			return []string{"", "Temperature", "Waiting..."}, nil
		}
		lines := []string{fmt.Sprintf("T: %5.1f C", s.sample.TempC)}
		if s.haveTilt {
			lines = append(lines, "Tilt:", s.tilt.Time.Format("15:04:05"))
		}
		return lines, nil
	default:
		return nil, fmt.Errorf("unknown display content type: %s", content)
	}
}

// renderLines draws one line of text per 13 pixel row.
func renderLines(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, (i+1)*lineHeight)
		drawer.DrawString(line)
	}
	return img
}

// RunDisplay shows the data selected by DISPLAY_CONTENT on an SSD1306 OLED,
// fed from the producer's MQTT topics.
func RunDisplay() error {
	cfg := config.Get()

	if _, err := displayLines(cfg.DisplayContent, &liveState{}); err != nil {
		return err
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}
	bus, err := i2creg.Open(cfg.IMUI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Printf("display: %s initialized", dev)

	if err := dev.Draw(dev.Bounds(), renderLines([]string{"", " Inertial Node", "   ICM-42670"}), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
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

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()
	stop := interrupted()

	log.Println("display: starting update loop")
	for {
		select {
		case sig := <-stop:
			log.Printf("display: %v, stopping", sig)
			return nil
		case <-ticker.C:
			lines, err := displayLines(cfg.DisplayContent, state)
			if err != nil {
				return err
			}
			if err := dev.Draw(dev.Bounds(), renderLines(lines), image.Point{}); err != nil {
				log.Printf("display: error updating display: %v", err)
			}
		}
	}
}
