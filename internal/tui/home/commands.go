package home

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maheshrc27/postpilot/internal/models"
)

// Async commands that return tea.Msg

func mount(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctrl.Mount(context.Background())
		return mountedMsg{snap: ctrl.Snapshot()}
	}
}

func connect(ctrl Controller, platform string) tea.Cmd {
	return func() tea.Msg {
		url, err := ctrl.Connect(context.Background(), platform)
		return connectDoneMsg{platform: platform, url: url, err: err}
	}
}

func openURL(open func(string) error, url string) tea.Cmd {
	return func() tea.Msg {
		return browserOpenedMsg{url: url, err: open(url)}
	}
}

func schedule(ctrl Controller, readFile func(string) ([]byte, error), post models.ComposedPost, imagePath string) tea.Cmd {
	return func() tea.Msg {
		if imagePath != "" {
			data, err := readFile(imagePath)
			if err != nil {
				return scheduleDoneMsg{snap: ctrl.Snapshot(), err: fmt.Errorf("read image: %w", err)}
			}
			post.Image = &models.MediaFile{Name: filepath.Base(imagePath), Data: data}
		}

		err := ctrl.SchedulePost(context.Background(), post)
		return scheduleDoneMsg{snap: ctrl.Snapshot(), err: err}
	}
}

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	go cmd.Wait()
	return nil
}
