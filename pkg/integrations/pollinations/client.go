package pollinations

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"strings"
	"time"

	"github.com/matzehuels/storyboard/pkg/cache"
	"github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/integrations"
)

const service = "pollinations"

// Default endpoints. The fallback serves a seeded stock photo when
// generation fails.
const (
	DefaultBaseURL     = "https://image.pollinations.ai"
	DefaultFallbackURL = "https://picsum.photos"
)

// Default image dimensions, matching the aspect of a node card.
const (
	DefaultWidth  = 512
	DefaultHeight = 300
)

// Image is a generated image and where it came from.
type Image struct {
	Data     []byte `json:"data"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Client generates images from text prompts. The service needs no key.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL     string
	fallbackURL string
	width       int
	height      int
}

// NewClient creates an image client. Generated images are cached in
// backend for cacheTTL.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:      integrations.NewClient(backend, service, cacheTTL, nil),
		baseURL:     DefaultBaseURL,
		fallbackURL: DefaultFallbackURL,
		width:       DefaultWidth,
		height:      DefaultHeight,
	}
}

// WithBaseURL points the generator and the fallback at other hosts. An
// empty fallback disables it.
func (c *Client) WithBaseURL(base, fallback string) *Client {
	c.baseURL = strings.TrimRight(base, "/")
	c.fallbackURL = strings.TrimRight(fallback, "/")
	return c
}

// WithSize sets the requested image dimensions.
func (c *Client) WithSize(w, h int) *Client {
	if w > 0 && h > 0 {
		c.width, c.height = w, h
	}
	return c
}

// Generate renders prompt to an image. When the generator cannot be
// reached, the seeded fallback photo is fetched instead and Fallback is
// set. An HTTP error status from the generator is returned as is.
func (c *Client) Generate(ctx context.Context, prompt string, refresh bool) (*Image, error) {
	if err := errors.ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	prompt = strings.TrimSpace(prompt)
	model := fmt.Sprintf("%dx%d", c.width, c.height)

	var img Image
	err := c.Cached(ctx, "generate", model, prompt, refresh, &img, func() error {
		url := fmt.Sprintf("%s/prompt/%s?width=%d&height=%d&nologo=true",
			c.baseURL, integrations.PathEncode(prompt), c.width, c.height)
		data, err := c.GetBytes(ctx, url, nil, integrations.MaxImageBytes)
		if err == nil {
			img = Image{Data: data}
			return nil
		}
		if !stderrors.Is(err, integrations.ErrTransport) || c.fallbackURL == "" {
			return err
		}
		url = fmt.Sprintf("%s/seed/%s/%d/%d", c.fallbackURL, integrations.PathEncode(prompt), c.width, c.height)
		data, ferr := c.GetBytes(ctx, url, nil, integrations.MaxImageBytes)
		if ferr != nil {
			return err
		}
		img = Image{Data: data, Fallback: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// Placeholder renders a small PNG whose colors are derived from prompt.
// The same prompt always yields the same bytes, so offline runs stay
// reproducible.
func Placeholder(prompt string, w, h int) []byte {
	if w <= 0 || h <= 0 {
		w, h = DefaultWidth/4, DefaultHeight/4
	}
	f := fnv.New64a()
	f.Write([]byte(prompt))
	seed := f.Sum64()
	from := color.RGBA{uint8(seed), uint8(seed >> 8), uint8(seed >> 16), 255}
	to := color.RGBA{uint8(seed >> 24), uint8(seed >> 32), uint8(seed >> 40), 255}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		t := float64(y) / float64(max(h-1, 1))
		c := color.RGBA{
			R: lerp(from.R, to.R, t),
			G: lerp(from.G, to.G, t),
			B: lerp(from.B, to.B, t),
			A: 255,
		}
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
