package config

import (
	"os"
	"strconv"
	"time"
)

func GetenvStr(key string) string {
	return os.Getenv(key)
}

func GetenvInt(key string) (*int, error) {
	s := GetenvStr(key)
	if s == "" {
		return nil, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func GetenvBool(key string) (*bool, error) {
	s := GetenvStr(key)
	if s == "" {
		return nil, nil
	}

	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func GetenvFloat(key string) (*float64, error) {
	s := GetenvStr(key)
	if s == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetenvDuration accepts Go duration strings like "30s" or "1m30s".
func GetenvDuration(key string) (*time.Duration, error) {
	s := GetenvStr(key)
	if s == "" {
		return nil, nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
