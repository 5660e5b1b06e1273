package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

// Dirs are the result directories below the results root.
type Dirs struct {
	Root        string
	Screenshots string
	Videos      string
	Traces      string
}

// NewDirs returns the layout below root.
func NewDirs(root string) Dirs {
	return Dirs{
		Root:        root,
		Screenshots: filepath.Join(root, "screenshots"),
		Videos:      filepath.Join(root, "videos"),
		Traces:      filepath.Join(root, "traces"),
	}
}

// Create makes sure all directories exist.
func (d Dirs) Create() error {
	for _, dir := range []string{d.Root, d.Screenshots, d.Videos, d.Traces} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// Evidence lists the files written for a finished test.
type Evidence struct {
	Screenshot string
	HTML       string
	Video      string
	Trace      string
}

// Artifacts collects failure evidence for browser tests. Every capture step
// is best-effort: errors are logged and never fail the test on their own.
type Artifacts struct {
	dirs  Dirs
	trace bool
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewArtifacts creates a collector writing below dirs. With trace set, a
// Playwright trace is recorded for every test.
func NewArtifacts(dirs Dirs, trace bool, log logrus.FieldLogger) *Artifacts {
	return &Artifacts{dirs: dirs, trace: trace, log: log, now: time.Now}
}

// Start begins tracing on ctx if enabled.
func (a *Artifacts) Start(ctx playwright.BrowserContext) {
	if !a.trace {
		return
	}
	err := ctx.Tracing().Start(playwright.TracingStartOptions{
		Screenshots: playwright.Bool(true),
		Snapshots:   playwright.Bool(true),
		Sources:     playwright.Bool(true),
	})
	if err != nil {
		a.log.WithError(err).Warn("Could not start tracing")
	}
}

// Finish stores evidence for the test. Screenshot, page source and video are
// kept only if the test failed; a started trace is always saved. The page is
// closed so that a recorded video gets flushed.
func (a *Artifacts) Finish(testName string, ctx playwright.BrowserContext, page playwright.Page, failed bool) Evidence {
	var ev Evidence
	base := a.fileBase(testName)
	log := a.log.WithField("test", testName)

	if failed && page != nil {
		shot := filepath.Join(a.dirs.Screenshots, base+".png")
		if _, err := page.Screenshot(playwright.PageScreenshotOptions{
			Path:     playwright.String(shot),
			FullPage: playwright.Bool(true),
		}); err != nil {
			log.WithError(err).Warn("Screenshot capture failed")
		} else {
			ev.Screenshot = shot
		}

		if html, err := page.Content(); err != nil {
			log.WithError(err).Warn("Page source capture failed")
		} else {
			file := filepath.Join(a.dirs.Screenshots, base+".html")
			if err := os.WriteFile(file, []byte(html), 0o644); err != nil {
				log.WithError(err).Warn("Writing page source failed")
			} else {
				ev.HTML = file
			}
		}
	}

	if a.trace && ctx != nil {
		file := filepath.Join(a.dirs.Traces, base+".zip")
		if err := ctx.Tracing().Stop(file); err != nil {
			log.WithError(err).Warn("Could not save trace")
		} else {
			ev.Trace = file
		}
	}

	if page != nil {
		_ = page.Close()
		if failed {
			if video := page.Video(); video != nil {
				if path, err := video.Path(); err == nil {
					ev.Video = path
				}
			}
		}
	}

	if failed {
		log.WithFields(logrus.Fields{
			"screenshot": ev.Screenshot,
			"html":       ev.HTML,
			"video":      ev.Video,
			"trace":      ev.Trace,
		}).Info("Stored failure evidence")
	}

	return ev
}

func (a *Artifacts) fileBase(testName string) string {
	name := strings.NewReplacer("/", "_", " ", "_", "\\", "_").Replace(testName)
	suffix := uuid.Must(uuid.NewV4()).String()[:8]
	return fmt.Sprintf("%s-%d-%s", name, a.now().Unix(), suffix)
}
