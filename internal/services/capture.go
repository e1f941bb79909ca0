package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"rtl-layout-auditor/internal/common"
	"rtl-layout-auditor/internal/models"
)

// captureScript is evaluated in the rendered page. It queries each role's
// selector, drops invisible and zero-size elements, rounds geometry to whole
// pixels and returns everything as one JSON string.
const captureScript = `(() => {
	const roles = %s;
	const root = document.documentElement;
	const out = {
		dir: (getComputedStyle(root).direction || root.dir || '').toLowerCase(),
		lang: root.lang || '',
		viewport: { width: Math.round(window.innerWidth), height: Math.round(window.innerHeight) },
		elements: []
	};
	for (const [role, selector] of roles) {
		let nodes;
		try {
			nodes = document.querySelectorAll(selector);
		} catch (e) {
			continue;
		}
		for (const el of nodes) {
			const r = el.getBoundingClientRect();
			const width = Math.round(r.width);
			const height = Math.round(r.height);
			if (width <= 0 || height <= 0) continue;
			const cs = getComputedStyle(el);
			if (cs.display === 'none' || cs.visibility === 'hidden') continue;
			out.elements.push({
				role: role,
				x: Math.round(r.left),
				y: Math.round(r.top),
				width: width,
				height: height,
				background: cs.backgroundColor || '',
				className: typeof el.className === 'string' ? el.className.trim() : '',
				tag: el.tagName.toLowerCase(),
				label: (el.getAttribute('aria-label') || el.textContent || '').trim().slice(0, 60)
			});
		}
	}
	return JSON.stringify(out);
})()`

type captureResult struct {
	Dir      string `json:"dir"`
	Lang     string `json:"lang"`
	Viewport struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"viewport"`
	Elements []struct {
		Role       string `json:"role"`
		X          int    `json:"x"`
		Y          int    `json:"y"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		Background string `json:"background"`
		ClassName  string `json:"className"`
		Tag        string `json:"tag"`
		Label      string `json:"label"`
	} `json:"elements"`
}

// BuildCaptureScript embeds the role selectors into the capture script.
// Built-in roles keep their canonical order, custom roles follow sorted.
func BuildCaptureScript(selectors map[models.Role]string) (string, error) {
	var ordered [][2]string
	for _, role := range models.DefaultRoles {
		if sel, ok := selectors[role]; ok {
			ordered = append(ordered, [2]string{string(role), sel})
		}
	}

	var custom []string
	builtin := make(map[models.Role]bool)
	for _, role := range models.DefaultRoles {
		builtin[role] = true
	}
	for role := range selectors {
		if !builtin[role] {
			custom = append(custom, string(role))
		}
	}
	sort.Strings(custom)
	for _, role := range custom {
		ordered = append(ordered, [2]string{role, selectors[models.Role(role)]})
	}

	encoded, err := json.Marshal(ordered)
	if err != nil {
		return "", fmt.Errorf("failed to encode role selectors: %w", err)
	}
	return fmt.Sprintf(captureScript, encoded), nil
}

// ParseCapture converts the capture script output into a page snapshot.
// Elements with non-positive size are dropped.
func ParseCapture(raw string, page models.PageTarget, fallback models.Viewport) (*models.PageSnapshot, error) {
	var result captureResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, common.NewCaptureError("decode_failed", "failed to decode capture result").
			WithCause(err).
			WithContext("page", page.ID)
	}

	viewport := models.Viewport{Width: result.Viewport.Width, Height: result.Viewport.Height}
	if viewport.Width <= 0 || viewport.Height <= 0 {
		viewport = fallback
	}

	snapshot := &models.PageSnapshot{
		Page:         page,
		Viewport:     viewport,
		Dir:          strings.ToLower(result.Dir),
		Lang:         result.Lang,
		Observations: make([]models.ElementObservation, 0, len(result.Elements)),
	}

	for _, el := range result.Elements {
		obs := models.ElementObservation{
			Role:            models.Role(el.Role),
			Page:            page.ID,
			Box:             models.Box{X: el.X, Y: el.Y, Width: el.Width, Height: el.Height},
			Viewport:        viewport,
			BackgroundColor: el.Background,
			ClassName:       el.ClassName,
			Tag:             el.Tag,
			Label:           el.Label,
		}
		if !obs.Valid() {
			continue
		}
		snapshot.Observations = append(snapshot.Observations, obs)
	}

	return snapshot, nil
}
