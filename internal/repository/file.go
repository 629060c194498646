package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mmeshcher/vales-contigo/internal/model"
)

const (
	stateFilePrefix = "estado_vales_"
	stateFileExt    = ".json"
)

// FileRepository хранит состояние каждого PIN в отдельном JSON-файле.
type FileRepository struct {
	dir string
}

// NewFileRepository создаёт файловое хранилище в каталоге dir, создавая его при необходимости.
func NewFileRepository(dir string) (*FileRepository, error) {
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	return &FileRepository{dir: dir}, nil
}

// FileName возвращает имя файла состояния для PIN без каталога.
func FileName(pin string) string {
	return stateFilePrefix + SafePIN(pin) + stateFileExt
}

// ResolvePath возвращает путь к файлу состояния PIN. Зависит только от PIN и каталога хранилища.
func (r *FileRepository) ResolvePath(pin string) string {
	return filepath.Join(r.dir, FileName(pin))
}

// Load читает множество использованных вале. Отсутствующий файл даёт ErrStateNotFound,
// ошибки чтения и разбора возвращаются как *LoadError.
func (r *FileRepository) Load(ctx context.Context, pin string) (model.UsedSet, error) {
	path := r.ResolvePath(pin)

	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Kind: LoadErrorIO, Location: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrStateNotFound
		}
		return nil, &LoadError{Kind: LoadErrorIO, Location: path, Err: err}
	}

	set, err := DecodeState(data)
	if err != nil {
		return nil, &LoadError{Kind: LoadErrorParse, Location: path, Err: err}
	}

	return set, nil
}

// Save полностью перезаписывает файл состояния PIN.
func (r *FileRepository) Save(ctx context.Context, pin string, used model.UsedSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := EncodeState(used)
	if err != nil {
		return err
	}

	if err := os.WriteFile(r.ResolvePath(pin), data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	return nil
}

// Close ничего не делает: файловое хранилище не держит ресурсов.
func (r *FileRepository) Close() error {
	return nil
}

// EncodeState сериализует множество в формат {"vales_usados": [...]} с отступами.
func EncodeState(used model.UsedSet) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(model.StateDocument{ValesUsados: used.IDs()}); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeState разбирает документ состояния. Отсутствующее поле vales_usados даёт пустое множество.
func DecodeState(data []byte) (model.UsedSet, error) {
	var doc model.StateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	return model.NewUsedSet(doc.ValesUsados...), nil
}
