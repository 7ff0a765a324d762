package xlog

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/safeopen"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/infra"
)

type fileSizeUnit uint64

const (
	B fileSizeUnit = 1 << (10 * iota)
	KB
	MB
	_maxSize = 1024 * MB
)

// Fixed width, so the backups sort by name in rotation order.
const backupDateTimeFormat = "2006_01_02T15_04_05.000000000"

var fileSizeRegexp = regexp.MustCompile(`^(\d+)(([kK]|[mM])?[bB])$`)

func parseFileSize(size string) (uint64, error) {
	res := fileSizeRegexp.FindAllStringSubmatch(size, -1)
	if len(res) <= 0 || len(res[0]) < 3 || res[0][0] != size {
		return 0, infra.NewErrorStack("invalid file size unit")
	}
	var unit fileSizeUnit
	switch strings.ToUpper(res[0][2]) {
	case "B":
		unit = B
	case "KB":
		unit = KB
	case "MB":
		unit = MB
	}
	_size, _ := strconv.ParseUint(res[0][1], 10, 64)
	if _size *= uint64(unit); _size > uint64(_maxSize) {
		_size = uint64(_maxSize)
	}
	return _size, nil
}

type FileCoreConfig struct {
	FilePath string `json:"filePath" yaml:"filePath"`
	Filename string `json:"filename" yaml:"filename"`
	// FileMaxSize like "512KB" or "64MB", empty never rotates.
	FileMaxSize    string `json:"fileMaxSize" yaml:"fileMaxSize"`
	FileMaxBackups int    `json:"fileMaxBackups" yaml:"fileMaxBackups"`
}

var _ io.WriteCloser = (*fileLog)(nil)

// fileLog appends to one file and moves it aside once it would grow
// beyond maxSize. It is not thread-safe, the core locks it.
type fileLog struct {
	filePath   string
	filename   string
	maxSize    uint64
	maxBackups int
	wroteSize  uint64
	mkdirOnce  sync.Once
	current    *os.File
}

func (log *fileLog) Write(p []byte) (n int, err error) {
	if log.current == nil {
		if err = log.open(); err != nil {
			return 0, err
		}
	}
	if log.maxSize > 0 && log.wroteSize > 0 && log.wroteSize+uint64(len(p)) > log.maxSize {
		if err = log.rotate(); err != nil {
			return 0, err
		}
	}
	n, err = log.current.Write(p)
	log.wroteSize += uint64(n)
	return
}

func (log *fileLog) Sync() error {
	if log.current == nil {
		return nil
	}
	return log.current.Sync()
}

func (log *fileLog) Close() error {
	if log.current == nil {
		return nil
	}
	err := log.current.Close()
	log.current = nil
	return err
}

func (log *fileLog) mkdir() error {
	var err error
	log.mkdirOnce.Do(func() {
		if log.filePath == "" {
			log.filePath = os.TempDir()
		}
		if mkErr := os.MkdirAll(log.filePath, 0o755); mkErr != nil {
			err = infra.WrapErrorStackWithMessage(mkErr, "mkdir "+log.filePath)
		}
	})
	return err
}

func (log *fileLog) open() error {
	if err := log.mkdir(); err != nil {
		return err
	}
	f, err := safeopen.OpenFileBeneath(log.filePath, log.filename, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "unable to open log file "+filepath.Join(log.filePath, log.filename))
	}
	info, err := f.Stat()
	if err != nil {
		return multierr.Append(infra.WrapErrorStack(err), f.Close())
	}
	log.current = f
	log.wroteSize = uint64(info.Size())
	return nil
}

func (log *fileLog) rotate() error {
	if err := log.Close(); err != nil {
		return infra.WrapErrorStackWithMessage(err, "close log file before rotation")
	}
	pathToLog := filepath.Join(log.filePath, log.filename)
	backup := pathToLog + "." + time.Now().UTC().Format(backupDateTimeFormat)
	if err := os.Rename(pathToLog, backup); err != nil {
		return infra.WrapErrorStackWithMessage(err, "backup log file")
	}
	if err := log.prune(); err != nil {
		return err
	}
	return log.open()
}

// prune removes the oldest backups beyond maxBackups.
func (log *fileLog) prune() error {
	if log.maxBackups <= 0 {
		return nil
	}
	backups, err := filepath.Glob(filepath.Join(log.filePath, log.filename) + ".*")
	if err != nil {
		return infra.WrapErrorStack(err)
	}
	if len(backups) <= log.maxBackups {
		return nil
	}
	sort.Strings(backups)
	var merr error
	for _, b := range backups[:len(backups)-log.maxBackups] {
		merr = multierr.Append(merr, os.Remove(b))
	}
	if merr != nil {
		return infra.WrapErrorStackWithMessage(merr, "prune log backups")
	}
	return nil
}

func newFileLog(cfg *FileCoreConfig) (*fileLog, error) {
	log := &fileLog{
		filePath:   cfg.FilePath,
		filename:   cfg.Filename,
		maxBackups: cfg.FileMaxBackups,
	}
	if log.filename == "" {
		log.filename = filepath.Base(os.Args[0]) + "_xlog.log"
	}
	if cfg.FileMaxSize != "" {
		size, err := parseFileSize(cfg.FileMaxSize)
		if err != nil {
			return nil, err
		}
		log.maxSize = size
	}
	return log, nil
}

// newFileCore ignores the writer type, every record goes to the file.
func newFileCore(log *fileLog) XLogCoreConstructor {
	return func(
		lvlEnabler zapcore.LevelEnabler,
		encoder logEncoderType,
		_ logOutWriterType,
		lvlEnc zapcore.LevelEncoder,
		tsEnc zapcore.TimeEncoder,
	) xLogCore {
		cc := &commonCore{
			lvlEnabler: lvlEnabler,
			lvlEnc:     lvlEnc,
			tsEnc:      tsEnc,
			ws:         zapcore.Lock(zapcore.AddSync(log)),
			enc:        getEncoderByType(encoder),
		}
		config := zapcore.EncoderConfig{
			MessageKey:    "msg",
			LevelKey:      "lvl",
			EncodeLevel:   cc.lvlEnc,
			TimeKey:       "ts",
			EncodeTime:    cc.tsEnc,
			CallerKey:     "callAt",
			EncodeCaller:  zapcore.ShortCallerEncoder,
			FunctionKey:   "fn",
			NameKey:       "component",
			EncodeName:    zapcore.FullNameEncoder,
			StacktraceKey: coreKeyIgnored,
		}
		cc.core = zapcore.NewCore(cc.enc(config), cc.ws, cc.lvlEnabler)
		return cc
	}
}
