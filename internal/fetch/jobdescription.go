package fetch

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
)

// Platform is a job board family with known page structure.
type Platform string

// Known platforms.
const (
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformAshby      Platform = "ashby"
	PlatformUnknown    Platform = "unknown"
)

type platformRules struct {
	hosts   []string
	content []string
	noise   []string
}

var platforms = map[Platform]platformRules{
	PlatformGreenhouse: {
		hosts:   []string{"greenhouse.io"},
		content: []string{".job__description.body", ".job__description", ".job-description__content", "#content", ".job-post-container"},
		noise:   []string{".application--wrapper", ".voluntary-self-id", "#usa_self_id_section", ".post-apply"},
	},
	PlatformLever: {
		hosts:   []string{"lever.co"},
		content: []string{".posting-page", ".section-wrapper.page-full-width", ".posting-description", ".content"},
		noise:   []string{".apply-section", ".lever-application-form", ".posting-apply"},
	},
	PlatformWorkday: {
		hosts:   []string{"myworkdayjobs.com", "workday.com"},
		content: []string{"[data-automation-id='jobPostingDescription']", "[data-automation-id='jobDescription']", ".job-description"},
		noise:   []string{"[data-automation-id='applyButton']", ".application-section"},
	},
	PlatformAshby: {
		hosts:   []string{"ashbyhq.com"},
		content: []string{"[class*='_descriptionText']", "[class*='_description']", "main"},
		noise:   []string{"[class*='_applicationForm']"},
	},
}

// noise shared by every job board: application forms, legal text, sharing
var postingNoise = []string{
	"form", "#application-form", ".application-form", ".apply-button-container",
	".eeo-statement", ".eeo-section", ".voluntary-disclosure", ".legal-disclosure",
	".social-share", ".share-buttons", ".cookie-consent", ".gdpr-notice",
}

// DetectPlatform identifies the job board from the URL host.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(parsed.Hostname())
	for p, rules := range platforms {
		for _, h := range rules.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return p
			}
		}
	}
	return PlatformUnknown
}

// Selectors returns the content and noise selectors for a platform.
func Selectors(p Platform) (content, noise []string) {
	rules, ok := platforms[p]
	if !ok {
		return JobPostingSelectors(), postingNoise
	}
	noise = append(append([]string{}, postingNoise...), rules.noise...)
	return rules.content, noise
}

// JobDescription fetches a posting and returns its text. When opts enables
// the browser and the static page yields too little text, the page is
// rendered and the longer of the two extractions wins.
func JobDescription(ctx context.Context, urlStr string, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	logger := slog.Default().With("component", "fetch")
	platform := DetectPlatform(urlStr)
	content, noise := Selectors(platform)

	var text string
	result, err := URL(ctx, urlStr, opts)
	if err == nil {
		text, err = ExtractMainText(result.HTML, content, noise...)
		if err != nil {
			return "", &Error{URL: urlStr, Message: "failed to extract text", Cause: err}
		}
	} else if !opts.UseBrowser {
		return "", err
	}
	logger.Debug("fetched job posting", "url", urlStr, "platform", platform, "chars", len(text))

	if opts.UseBrowser && ShouldUseBrowser(text) {
		render := opts.Render
		if render == nil {
			render = RenderWithBrowser
		}
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		html, rerr := render(ctx, urlStr, timeout)
		if rerr != nil {
			if text == "" {
				return "", &Error{URL: urlStr, Message: "browser rendering failed", Cause: rerr}
			}
			logger.Warn("browser rendering failed, using static text", "url", urlStr, "err", rerr)
		} else if rendered, xerr := ExtractMainText(html, content, noise...); xerr == nil && len(rendered) > len(text) {
			text = rendered
		}
	}

	if strings.TrimSpace(text) == "" {
		return "", &Error{URL: urlStr, Message: "no job description text found"}
	}
	return text, nil
}
