//go:build !tinygo && cgo

package glshadeaux

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/glshade/glrender"
)

// Run opens a window configured by cfg and renders app until the window is
// closed or ctx is done. If cam is not nil it is orbited by dragging with the
// left mouse button and zoomed with the scroll wheel.
func Run(ctx context.Context, cfg Config, cam *OrbitCamera, app App) error {
	err := cfg.Validate()
	if err != nil {
		return err
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	log := cfg.NewLogger(os.Stderr)
	window, term, err := startGLFW(cfg)
	if err != nil {
		return err
	}
	defer term()
	log.Info("context created", "renderer", gl.GoStr(gl.GetString(gl.RENDERER)), "version", gl.GoStr(gl.GetString(gl.VERSION)))

	native, err := glrender.NativeGL()
	if err != nil {
		return err
	}
	dev, err := glrender.NewDevice(native, cfg.DeviceOptions(log)...)
	if err != nil {
		return err
	}
	err = app.Init(dev)
	if err != nil {
		return err
	}
	if r, ok := app.(Reloader); ok {
		wctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go watchReloads(wctx, dev, log, r)
	}
	if cam != nil {
		attachOrbit(window, cam)
	}

	previous := glfw.GetTime()
	for !window.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		now := glfw.GetTime()
		width, height := window.GetFramebufferSize()
		dev.ExecutePending()
		err = app.Frame(dev, width, height, now-previous)
		if err != nil {
			return err
		}
		previous = now
		window.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}

func attachOrbit(window *glfw.Window, cam *OrbitCamera) {
	var (
		lastX, lastY float64
		pressed      bool
		first        bool
	)
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if !pressed {
			return
		}
		if first {
			lastX, lastY = xpos, ypos
			first = false
		}
		cam.Orbit(float32(xpos-lastX), float32(ypos-lastY))
		lastX, lastY = xpos, ypos
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		cam.Zoom(float32(yoff))
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		switch action {
		case glfw.Press:
			pressed, first = true, true
			w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		case glfw.Release:
			pressed = false
			w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		}
	})
}

func startGLFW(cfg Config) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	window, err = glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("creating window: %w", err)
	}
	window.MakeContextCurrent()
	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}
