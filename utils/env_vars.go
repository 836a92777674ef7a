package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

type EnvType interface {
	~string | ~int | ~bool | time.Duration
}

// GetEnv reads an environment variable, converted to T. An unset or empty
// variable yields the default value; an unconvertible one panics, because it
// means the deployment itself is broken.
func GetEnv[T EnvType](envVar string, defaultValue T) T {
	envValue, ok := os.LookupEnv(envVar)
	if !ok || envValue == "" {
		return defaultValue
	}
	return convertEnv[T](envVar, envValue)
}

// GetRequiredEnv is GetEnv without a fallback: a missing variable is fatal.
func GetRequiredEnv[T EnvType](envVar string) T {
	envValue, ok := os.LookupEnv(envVar)
	if !ok || envValue == "" {
		log.Fatalf("%s environment variable is required", envVar)
	}
	return convertEnv[T](envVar, envValue)
}

func convertEnv[T EnvType](envVar, envValue string) T {
	var out T
	switch ptr := any(&out).(type) {
	case *string:
		*ptr = envValue
	case *int:
		intValue, err := strconv.Atoi(envValue)
		if err != nil {
			panic(fmt.Sprintf("Environment variable %s is not valid. '%s' is not an integer", envVar, envValue))
		}
		*ptr = intValue
	case *bool:
		boolValue, err := strconv.ParseBool(envValue)
		if err != nil {
			panic(fmt.Sprintf("Environment variable %s is not valid. '%s' is not a boolean", envVar, envValue))
		}
		*ptr = boolValue
	case *time.Duration:
		durationValue, err := time.ParseDuration(envValue)
		if err != nil {
			panic(fmt.Sprintf("Environment variable %s is not valid. '%s' is not a duration", envVar, envValue))
		}
		*ptr = durationValue
	}
	return out
}
