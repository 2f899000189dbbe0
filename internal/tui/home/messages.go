package home

import "github.com/maheshrc27/postpilot/internal/service"

// mountedMsg is sent once the initial fetches have completed.
type mountedMsg struct {
	snap service.HomeSnapshot
}

type connectDoneMsg struct {
	platform string
	url      string
	err      error
}

type scheduleDoneMsg struct {
	snap service.HomeSnapshot
	err  error
}

type browserOpenedMsg struct {
	url string
	err error
}
