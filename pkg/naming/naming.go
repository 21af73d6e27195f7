package naming

import (
	"regexp"
	"strings"
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

func sanitizePart(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "_", "-")
	value = strings.ReplaceAll(value, " ", "-")
	value = nonAlnum.ReplaceAllString(value, "-")
	value = multiDash.ReplaceAllString(value, "-")
	value = strings.Trim(value, "-")
	return value
}

// NormalizeStage maps stage aliases to canonical values.
//
// Canonical stages are lowercased and safe for typical resource naming schemes.
func NormalizeStage(stage string) string {
	stage = strings.ToLower(strings.TrimSpace(stage))
	switch stage {
	case "prod", "production", "live":
		return "live"
	case "dev", "development":
		return "dev"
	case "stg", "stage", "staging":
		return "stage"
	case "test", "testing":
		return "test"
	case "local":
		return "local"
	default:
		return sanitizePart(stage)
	}
}

// StackName returns a deterministic stack name:
// - <app>-<dataplane>-<stage>
//
// Dataplane identifies the logical service (model-runner, tile-server).
func StackName(appName, dataplane, stage string) string {
	return join(sanitizePart(appName), sanitizePart(dataplane), NormalizeStage(stage))
}

// ResourceName returns a deterministic resource name:
// - <app>-<resource>-<stage>
func ResourceName(appName, resource, stage string) string {
	return join(sanitizePart(appName), sanitizePart(resource), NormalizeStage(stage))
}

// LogGroupName returns the CloudWatch log group for an ECS service container.
func LogGroupName(serviceName string) string {
	return "/aws/ecs/" + sanitizePart(serviceName)
}

func join(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "-")
}
