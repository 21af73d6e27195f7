// Package geotheory provides reusable CDK constructs for deploying
// geospatial imagery-ML services: shared base resources (VPC, tables,
// queues, topics, buckets, container repositories) and the account model
// that drives removal policies and per-region behavior.
package geotheory

import (
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"gopkg.in/yaml.v3"

	"github.com/theory-cloud/geotheory/pkg/naming"
)

// Account describes the deployment target for a set of stacks.
//
// ProdLike accounts keep stateful resources on stack deletion; Isolated
// accounts live in air-gapped partitions where public container registries
// and managed autoscaling integrations are unavailable.
type Account struct {
	App    string `yaml:"app"`
	ID     string `yaml:"id"`
	Region string `yaml:"region"`
	Stage  string `yaml:"stage"`

	ProdLike bool `yaml:"prodLike"`
	Isolated bool `yaml:"isolated"`

	EnableAutoscaling bool `yaml:"enableAutoscaling"`
	EnableMonitoring  bool `yaml:"enableMonitoring"`
	EnableAuth        bool `yaml:"enableAuth"`
}

// Validate checks the fields every construct depends on.
func (a Account) Validate() error {
	if strings.TrimSpace(a.App) == "" {
		return fmt.Errorf("geotheory: account app name is required")
	}
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("geotheory: account id is required")
	}
	if strings.TrimSpace(a.Region) == "" {
		return fmt.Errorf("geotheory: account region is required")
	}
	if a.Isolated && !RegionProfileFor(a.Region).Isolated {
		return fmt.Errorf("geotheory: account marked isolated but region %s is not in an isolated partition", a.Region)
	}
	return nil
}

// Env returns the CDK environment for this account.
func (a Account) Env() *awscdk.Environment {
	return &awscdk.Environment{
		Account: jsii.String(a.ID),
		Region:  jsii.String(a.Region),
	}
}

// StackName returns the deterministic stack name for a dataplane.
func (a Account) StackName(dataplane string) string {
	return naming.StackName(a.App, dataplane, a.Stage)
}

// ResourceName returns the deterministic name for one of this account's resources.
func (a Account) ResourceName(resource string) string {
	return naming.ResourceName(a.App, resource, a.Stage)
}

// RemovalPolicyFor returns RETAIN for prod-like accounts and DESTROY otherwise.
//
// Dev and test accounts are expected to tear stacks down completely; production
// data stores must survive accidental stack deletion.
func RemovalPolicyFor(account Account) awscdk.RemovalPolicy {
	if account.ProdLike {
		return awscdk.RemovalPolicy_RETAIN
	}
	return awscdk.RemovalPolicy_DESTROY
}

// LoadAccount reads an account descriptor from a YAML file.
func LoadAccount(path string) (Account, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Account{}, fmt.Errorf("geotheory: read account config: %w", err)
	}
	return ParseAccount(raw)
}

// ParseAccount decodes and validates a YAML account descriptor.
func ParseAccount(raw []byte) (Account, error) {
	var account Account
	if err := yaml.Unmarshal(raw, &account); err != nil {
		return Account{}, fmt.Errorf("geotheory: parse account config: %w", err)
	}
	if account.Stage == "" {
		account.Stage = "dev"
	}
	if err := account.Validate(); err != nil {
		return Account{}, err
	}
	return account, nil
}
