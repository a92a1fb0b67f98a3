// Package scratch - Per-request scratch files for uploads and rendered results.
package scratch

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nvr-ai/shroomguard/common"
)

// ResultExt is the extension of every rendered result file.
const ResultExt = ".png"

// Store owns the upload and result directories. Files are never removed by the store.
type Store struct {
	uploadDir string
	resultDir string
}

// Entry is the pair of scratch files belonging to one request.
type Entry struct {
	// Token is the random identifier the file names are derived from.
	Token string
	// Name is the client supplied file name.
	Name string
	// UploadPath is where the original upload bytes are kept.
	UploadPath string
	// ResultPath is where the rendered PNG is written.
	ResultPath string
}

// NewStore creates a Store, making both directories if they do not exist.
//
// Arguments:
//   - uploadDir: Directory for original uploads.
//   - resultDir: Directory for rendered results.
//
// Returns:
//   - *Store: The store.
//   - error: A *common.StorageError if a directory cannot be created.
func NewStore(uploadDir, resultDir string) (*Store, error) {
	for _, dir := range []string{uploadDir, resultDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, common.NewStorageError("create directory", dir, err)
		}
	}
	return &Store{uploadDir: uploadDir, resultDir: resultDir}, nil
}

// NewToken returns a fresh random token for a request.
func NewToken() string {
	return uuid.NewString()
}

// Entry derives the scratch paths for token. The client file name only contributes its
// extension so it can never escape the scratch directories.
func (s *Store) Entry(token, name string) *Entry {
	return &Entry{
		Token:      token,
		Name:       name,
		UploadPath: filepath.Join(s.uploadDir, token+cleanExt(name)),
		ResultPath: filepath.Join(s.resultDir, token+ResultExt),
	}
}

// cleanExt returns the lower-cased extension of name if it is short and alphanumeric.
func cleanExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// SaveUpload copies r to the upload file of a new entry, replacing any existing file.
//
// Arguments:
//   - token: The request token.
//   - name: The client supplied file name.
//   - r: The upload body.
//
// Returns:
//   - *Entry: The entry describing both scratch paths.
//   - error: A *common.StorageError if the file cannot be written.
func (s *Store) SaveUpload(token, name string, r io.Reader) (*Entry, error) {
	entry := s.Entry(token, name)

	f, err := os.Create(entry.UploadPath)
	if err != nil {
		return nil, common.NewStorageError("create upload", entry.UploadPath, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return nil, common.NewStorageError("write upload", entry.UploadPath, err)
	}
	if err := f.Close(); err != nil {
		return nil, common.NewStorageError("close upload", entry.UploadPath, err)
	}
	return entry, nil
}

// WriteResult writes the rendered image for the entry, replacing any existing file.
func (s *Store) WriteResult(entry *Entry, data []byte) error {
	if err := os.WriteFile(entry.ResultPath, data, 0o644); err != nil {
		return common.NewStorageError("write result", entry.ResultPath, err)
	}
	return nil
}

// ReadUpload reads back the original upload bytes.
func (s *Store) ReadUpload(entry *Entry) ([]byte, error) {
	data, err := os.ReadFile(entry.UploadPath)
	if err != nil {
		return nil, common.NewStorageError("read upload", entry.UploadPath, err)
	}
	return data, nil
}

// ReadResult reads back the rendered result bytes.
func (s *Store) ReadResult(entry *Entry) ([]byte, error) {
	data, err := os.ReadFile(entry.ResultPath)
	if err != nil {
		return nil, common.NewStorageError("read result", entry.ResultPath, err)
	}
	return data, nil
}
