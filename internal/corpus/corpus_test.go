package corpus

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"golang.org/x/image/bmp"
)

func TestCommonIdentifiers(t *testing.T) {
	a := NewSet("doc2", "doc1", "doc3")
	b := NewSet("doc3", "doc1", "doc4")

	got := CommonIdentifiers(a, b)
	want := []string{"doc1", "doc3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CommonIdentifiers = %v, want %v", got, want)
	}
}

func TestCommonIdentifiers_Empty(t *testing.T) {
	got := CommonIdentifiers(NewSet("a"), NewSet("b"))
	if got == nil {
		t.Fatal("expected non-nil empty slice")
	}
	if len(got) != 0 {
		t.Errorf("expected no identifiers, got %v", got)
	}

	if got := CommonIdentifiers(nil, NewSet("x")); len(got) != 0 {
		t.Errorf("expected no identifiers for nil set, got %v", got)
	}
}

func TestUnionIdentifiers(t *testing.T) {
	got := UnionIdentifiers(NewSet("b", "a"), NewSet("c", "a"))
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UnionIdentifiers = %v, want %v", got, want)
	}
}

func TestSet(t *testing.T) {
	s := NewSet()
	s.Add("z")
	s.Add("m")
	if !s.Has("z") || s.Has("q") {
		t.Errorf("unexpected membership in %v", s)
	}
	if got := s.Sorted(); !reflect.DeepEqual(got, []string{"m", "z"}) {
		t.Errorf("Sorted = %v", got)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirStore_List(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc1.txt", "one")
	writeFile(t, dir, "doc2.txt", "two")
	writeFile(t, dir, "doc2.docx", "ignored")
	writeFile(t, dir, "notes.md", "ignored")
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	s := NewDirStore(dir, "primary")
	set, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := set.Sorted(); !reflect.DeepEqual(got, []string{"doc1", "doc2"}) {
		t.Errorf("List = %v", got)
	}
	if s.Label() != "primary" {
		t.Errorf("Label = %q", s.Label())
	}
}

func TestDirStore_ListMissingDir(t *testing.T) {
	s := NewDirStore(filepath.Join(t.TempDir(), "absent"), "primary")
	_, err := s.List()
	if !errors.Is(err, ErrStoreMissing) {
		t.Fatalf("expected ErrStoreMissing, got %v", err)
	}
}

func TestDirStore_Read(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc1.txt", "line one\nline two\n")

	s := NewDirStore(dir, "secondary")
	got, err := s.Read("doc1")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "line one\nline two\n" {
		t.Errorf("Read = %q", got)
	}

	if _, err := s.Read("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	return img
}

func TestImageSource_List(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.PNG", "x")
	writeFile(t, dir, "a.jpeg", "x")
	writeFile(t, dir, "c.webp", "x")
	writeFile(t, dir, "readme.txt", "x")
	writeFile(t, dir, "scan.tiff", "x")

	refs, err := NewImageSource(dir, 0).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
		t.Errorf("List ids = %v", ids)
	}
	if refs[1].Name != "b.PNG" {
		t.Errorf("expected original name kept, got %q", refs[1].Name)
	}
}

func TestImageSource_ListMissingDir(t *testing.T) {
	_, err := NewImageSource(filepath.Join(t.TempDir(), "nope"), 0).List()
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestImageSource_LoadPNG(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "page.png", buf.String())

	src := NewImageSource(dir, 0)
	refs, err := src.List()
	if err != nil || len(refs) != 1 {
		t.Fatalf("List: %v %v", refs, err)
	}
	img, err := src.Load(refs[0])
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q", img.MIMEType)
	}
	if !bytes.Equal(img.Data, buf.Bytes()) {
		t.Error("expected png bytes to pass through unchanged")
	}
}

func TestImageSource_LoadBMPConvertsToPNG(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, testImage()); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "scan.bmp", buf.String())

	src := NewImageSource(dir, 0)
	refs, _ := src.List()
	img, err := src.Load(refs[0])
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Fatalf("MIMEType = %q, want image/png", img.MIMEType)
	}
	decoded, err := png.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("converted data is not png: %v", err)
	}
	if decoded.Bounds().Dx() != 4 {
		t.Errorf("unexpected bounds %v", decoded.Bounds())
	}
}

func TestImageSource_LoadRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fake.png", "this is plain text, not an image")

	src := NewImageSource(dir, 0)
	refs, _ := src.List()
	if _, err := src.Load(refs[0]); err == nil {
		t.Fatal("expected error for non-image content")
	}
}

func TestImageSource_LoadTooLarge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.png", string(make([]byte, 2048)))

	src := NewImageSource(dir, 1024)
	refs, _ := src.List()
	if _, err := src.Load(refs[0]); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}
