package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/bmp"

	"github.com/jmylchreest/ocrmerge/internal/llm"
	"github.com/jmylchreest/ocrmerge/internal/logger"
)

// ErrImageTooLarge is returned by Load when an image exceeds the size limit.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// SupportedExtensions lists the image extensions picked up from the input
// folder (compared case-insensitively).
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".bmp", ".gif"}

// ImageRef is an image file discovered in the input folder.
type ImageRef struct {
	ID   string // file stem
	Name string // base name
	Path string
	Size int64
}

// ImageSource enumerates the images of an input folder.
type ImageSource struct {
	dir      string
	maxBytes uint64
}

// NewImageSource creates a source over dir. maxBytes of 0 disables the
// size limit.
func NewImageSource(dir string, maxBytes uint64) *ImageSource {
	return &ImageSource{dir: dir, maxBytes: maxBytes}
}

// Dir returns the input folder.
func (s *ImageSource) Dir() string {
	return s.dir
}

// List returns the supported images in the folder, sorted by identifier.
// Images sharing an identifier (scan.png, scan.jpg) are all returned,
// ordered by name. A missing folder is reported with fs.ErrNotExist.
func (s *ImageSource) List() ([]ImageRef, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list images in %s: %w", s.dir, err)
	}

	refs := make([]ImageRef, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isSupported(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		name := e.Name()
		refs = append(refs, ImageRef{
			ID:   strings.TrimSuffix(name, filepath.Ext(name)),
			Name: name,
			Path: filepath.Join(s.dir, name),
			Size: info.Size(),
		})
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].ID != refs[j].ID {
			return refs[i].ID < refs[j].ID
		}
		return refs[i].Name < refs[j].Name
	})
	return refs, nil
}

// Load reads the image and returns it in a form every provider accepts.
// BMP files are re-encoded as PNG; nothing else about the image changes.
func (s *ImageSource) Load(ref ImageRef) (llm.Image, error) {
	if s.maxBytes > 0 && uint64(ref.Size) > s.maxBytes {
		return llm.Image{}, fmt.Errorf("%w: %s is %s (limit %s)", ErrImageTooLarge,
			ref.Name, humanize.Bytes(uint64(ref.Size)), humanize.Bytes(s.maxBytes))
	}

	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return llm.Image{}, fmt.Errorf("read image %s: %w", ref.Name, err)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return llm.Image{}, fmt.Errorf("%s is not an image (detected %s)", ref.Name, mt.String())
	}

	if mt.Is("image/bmp") {
		converted, err := bmpToPNG(data)
		if err != nil {
			return llm.Image{}, fmt.Errorf("convert %s to png: %w", ref.Name, err)
		}
		logger.Debug("converted bmp to png", "image", ref.Name,
			"from", humanize.Bytes(uint64(len(data))), "to", humanize.Bytes(uint64(len(converted))))
		return llm.Image{Data: converted, MIMEType: "image/png"}, nil
	}

	// Drop any parameters so providers see a bare media type.
	mediaType, _, _ := strings.Cut(mt.String(), ";")
	return llm.Image{Data: data, MIMEType: mediaType}, nil
}

func bmpToPNG(data []byte) ([]byte, error) {
	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}
