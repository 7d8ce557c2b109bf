package core

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// FrameDrawer draws a single frame
type FrameDrawer interface {
	DrawFrame() error
}

// Loop polls the window and draws frames until the window is closed.
// Close requests are only noticed between frames. Frame rate is logged
// and shown in the window title every second.
func Loop(window Window, drawer FrameDrawer, clock *Time, title string) error {
	for !window.ShouldClose() {
		window.PollEvents()
		clock.Wait()

		if err := drawer.DrawFrame(); err != nil {
			return err
		}

		if fps, ok := clock.Tick(); ok {
			log.WithField("fps", fps).Info("frame rate")
			window.SetTitle(fmt.Sprintf("%s | FPS: %d", title, fps))
		}
	}
	return nil
}
