package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version   int    `json:"version"`
	Region    string `json:"region"`
	SavedAt   int64  `json:"saved_at_unix"`
	SizeBytes int    `json:"size_bytes"`
}

// FileStore writes zstd-compressed snapshot files: a JSON header line followed
// by the adapter's opaque payload. Files are named by snapshot id.
type FileStore struct {
	dir   string
	world WorldAccess
}

func NewFileStore(dir string, world WorldAccess) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty snapshot dir")
	}
	if world == nil {
		return nil, fmt.Errorf("nil world access")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, world: world}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".snap.zst")
}

func (s *FileStore) Save(region string) (string, error) {
	payload, err := s.world.Export(region)
	if err != nil {
		return "", fmt.Errorf("export %s: %w", region, err)
	}

	id := uuid.NewString()
	tmp := s.path(id) + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return "", err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(Header{
		Version:   1,
		Region:    region,
		SavedAt:   time.Now().Unix(),
		SizeBytes: len(payload),
	})
	if _, err := bw.Write(hb); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = f.Close()
		return "", err
	}
	if _, err := bw.Write(payload); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, s.path(id)); err != nil {
		return "", err
	}
	return id, nil
}

func (s *FileStore) Restore(region, id string) error {
	hdr, payload, err := s.read(id)
	if err != nil {
		return err
	}
	if hdr.Region != region {
		return fmt.Errorf("snapshot %s belongs to %s, not %s", id, hdr.Region, region)
	}
	if err := s.world.Import(region, payload); err != nil {
		return fmt.Errorf("import %s: %w", region, err)
	}
	return nil
}

func (s *FileStore) read(id string) (Header, []byte, error) {
	var hdr Header
	f, err := os.Open(s.path(id))
	if err != nil {
		return hdr, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return hdr, nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return hdr, nil, fmt.Errorf("snapshot header: %w", err)
	}
	if err := json.Unmarshal(bytes.TrimSpace(line), &hdr); err != nil {
		return hdr, nil, fmt.Errorf("snapshot header: %w", err)
	}
	payload, err := io.ReadAll(br)
	if err != nil {
		return hdr, nil, err
	}
	return hdr, payload, nil
}
