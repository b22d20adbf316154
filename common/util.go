package common

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

func GetAssetAbsPath(fileName string) (string, error) {
	return GetAbsPath(fileName, "assets")
}

func GetAbsPath(fileName, dirName string) (string, error) {
	_, cFilePath, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("runtime.Caller error")
	}
	dir := filepath.Dir(cFilePath)
	path := filepath.Join(dir, dirName, fileName)
	_, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	return path, nil
}

func GetAsset(filename string) (string, error) {
	path, err := GetAssetAbsPath(filename)
	if err != nil {
		return "", err
	}
	return ReadFile(path)
}

func ReadFile(filepath string) (string, error) {
	bytes, err := os.ReadFile(filepath)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// ContainsOperationName reports whether s is in list, ignoring case,
// underscores, hyphens and an "operation" suffix.
func ContainsOperationName(s string, list []string) bool {
	s = NormalizeOperationName(s)
	for _, c := range list {
		if s == NormalizeOperationName(c) {
			return true
		}
	}
	return false
}

func NormalizeOperationName(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return strings.TrimSuffix(s, "operation")
}

// ParseParams parses "name=value" pairs into a variable map. A name given
// twice is an error.
func ParseParams(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%q is not of the form name=value", p)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("parameter %s is given twice", name)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s:%w", name, err)
		}
		out[name] = f
	}
	return out, nil
}

// SortedKeys returns the keys of m in increasing order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func IsDirWritable(dirPath string) error {
	info, err := os.Stat(dirPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", dirPath)
	}
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dirPath)
	}

	tempFile, err := os.CreateTemp(dirPath, "test-write-*.tmp")
	if err != nil {
		return fmt.Errorf("write permission denied for directory: %s", dirPath)
	}
	fileName := tempFile.Name()
	tempFile.Close()

	if err := os.Remove(fileName); err != nil {
		return fmt.Errorf("failed to remove temporary file: %s", err)
	}

	return nil
}

func ReadSettingsFile(settingsPath string) (string, error) {
	bytes, err := os.ReadFile(settingsPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to read settings file/path:%s/reason:%s",
			settingsPath, err))
		if absolutePath, err := filepath.Abs(settingsPath); err != nil {
			zap.L().Error(fmt.Sprintf("failed to get absolute path of %s/reason:%s",
				settingsPath, err))
		} else {
			zap.L().Debug(fmt.Sprintf("absolute path:%s", absolutePath))
		}
		return "", err
	}
	return string(bytes), nil
}
