package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	appLog "github.com/leocassarani/timetable/internal/log"
)

const defaultBaseURL = "http://www.doc.ic.ac.uk/internal/timetables"

// WeekRange identifies one published document: the department splits each
// season into files covering an inclusive range of week numbers.
type WeekRange struct {
	First int
	Last  int
}

// Downloader fetches published timetable documents. Fetch failures of any
// kind yield an empty document; the parser turns that into zero events, so
// a missing or broken page never breaks a whole calendar.
type Downloader struct {
	client  *http.Client
	baseURL string
}

// NewDownloader creates a Downloader. baseURL overrides the departmental
// server, mainly for tests; pass "" for the real one.
func NewDownloader(baseURL string) *Downloader {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Downloader{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: baseURL,
	}
}

// Fetch retrieves the document for one (course id, season, week range)
// triple, returning "" when it can't be had.
func (d *Downloader) Fetch(ctx context.Context, courseID int, season string, weeks WeekRange) string {
	url := fmt.Sprintf("%s/%s/class/%d_%d_%d.htm", d.baseURL, season, courseID, weeks.First, weeks.Last)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		appLog.Error("timetable request build failed", err, "url", url)
		return ""
	}

	resp, err := d.client.Do(req)
	if err != nil {
		appLog.Error("timetable fetch failed", err, "url", url)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		appLog.Info("timetable fetch skipped", "url", url, "status", resp.StatusCode)
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		appLog.Error("timetable body read failed", err, "url", url)
		return ""
	}

	appLog.Debug("timetable fetched", "url", url, "bytes", len(body))
	return string(body)
}
