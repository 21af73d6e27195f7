package geotheory

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// TableProps configures a dataplane DynamoDB table.
type TableProps struct {
	Account Account

	TableName    string
	PartitionKey *awsdynamodb.Attribute
	SortKey      *awsdynamodb.Attribute

	// TTLAttribute enables item expiry on the named attribute.
	TTLAttribute string
}

// Table wraps a DynamoDB table with the account's durability settings applied.
type Table struct {
	Table awsdynamodb.Table
}

// NewTable creates an on-demand table. Prod-like accounts get point-in-time
// recovery and keep the table on stack deletion.
func NewTable(scope constructs.Construct, id string, props *TableProps) *Table {
	tableProps := &awsdynamodb.TableProps{
		TableName:          jsii.String(props.Account.ResourceName(props.TableName)),
		PartitionKey:       props.PartitionKey,
		BillingMode:        awsdynamodb.BillingMode_PAY_PER_REQUEST,
		RemovalPolicy:      RemovalPolicyFor(props.Account),
		PointInTimeRecovery: jsii.Bool(props.Account.ProdLike),
	}
	if props.SortKey != nil {
		tableProps.SortKey = props.SortKey
	}
	if props.TTLAttribute != "" {
		tableProps.TimeToLiveAttribute = jsii.String(props.TTLAttribute)
	}

	return &Table{
		Table: awsdynamodb.NewTable(scope, jsii.String(id), tableProps),
	}
}
