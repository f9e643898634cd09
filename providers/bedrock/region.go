package bedrock

import (
	"os"
	"strings"
)

// applyRegionPrefix prepends the cross-region inference profile prefix
// ("us.", "eu.", "ap.") derived from the AWS region. Model IDs that already
// carry a region prefix are returned unchanged.
func applyRegionPrefix(modelID, region string) string {
	if len(region) < 2 {
		region = "us-east-1"
	}
	prefix := region[:2] + "."

	if strings.HasPrefix(modelID, prefix) {
		return modelID
	}

	// A prefix is always two lowercase letters followed by a dot. Keep any
	// other region's prefix rather than stacking a second one.
	if len(modelID) >= 3 && modelID[2] == '.' && isLowercaseLetters(modelID[:2]) {
		return modelID
	}

	return prefix + modelID
}

func isLowercaseLetters(s string) bool {
	for _, c := range s {
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

// getRegionFromEnv reads AWS_REGION, falling back to us-east-1.
func getRegionFromEnv() string {
	if region := os.Getenv("AWS_REGION"); region != "" {
		return region
	}
	return "us-east-1"
}
