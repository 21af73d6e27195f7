package geotheory

import (
	"fmt"
	"strings"
)

// RegionProfile captures the per-partition facts the dataplanes branch on.
type RegionProfile struct {
	Partition string
	DNSSuffix string
	Isolated  bool

	// firelensImage is the log-router image in partitions where the public
	// ECR gallery is reachable. Empty for isolated partitions, which must
	// pull from an in-account mirror instead.
	firelensImage string
}

const publicFirelensImage = "public.ecr.aws/aws-observability/aws-for-fluent-bit:stable"

// RegionProfileFor maps a region to its partition profile.
func RegionProfileFor(region string) RegionProfile {
	region = strings.ToLower(strings.TrimSpace(region))
	switch {
	case strings.HasPrefix(region, "us-isob-"):
		return RegionProfile{Partition: "aws-iso-b", DNSSuffix: "sc2s.sgov.gov", Isolated: true}
	case strings.HasPrefix(region, "us-iso-"):
		return RegionProfile{Partition: "aws-iso", DNSSuffix: "c2s.ic.gov", Isolated: true}
	case strings.HasPrefix(region, "us-gov-"):
		return RegionProfile{Partition: "aws-us-gov", DNSSuffix: "amazonaws.com", firelensImage: publicFirelensImage}
	case strings.HasPrefix(region, "cn-"):
		return RegionProfile{Partition: "aws-cn", DNSSuffix: "amazonaws.com.cn", firelensImage: publicFirelensImage}
	default:
		return RegionProfile{Partition: "aws", DNSSuffix: "amazonaws.com", firelensImage: publicFirelensImage}
	}
}

// FirelensImageURI returns the log-router sidecar image for an account.
//
// Commercial partitions use the public fluent-bit image; isolated partitions
// pull a mirrored copy from the account's own registry.
func (p RegionProfile) FirelensImageURI(account Account) string {
	if !p.Isolated {
		return p.firelensImage
	}
	return fmt.Sprintf("%s.dkr.ecr.%s.%s/aws-for-fluent-bit:stable", account.ID, account.Region, p.DNSSuffix)
}
