// Package functions implements the deployment metadata capability provider
// on top of Cloud Functions v2.
package functions

import (
	"context"
	"fmt"

	functionsapi "cloud.google.com/go/functions/apiv2"
	"cloud.google.com/go/functions/apiv2/functionspb"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oktay-be/gcp-testing-agent/internal/provider"
)

// Admin is a read-only FunctionAdmin backed by the Cloud Functions API.
type Admin struct {
	client    *functionsapi.FunctionClient
	projectID string
	region    string
	log       logrus.FieldLogger
}

// NewAdmin creates a function admin scoped to one project and region.
func NewAdmin(ctx context.Context, log logrus.FieldLogger, projectID, region string) (*Admin, error) {
	client, err := functionsapi.NewFunctionClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating functions client: %w", err)
	}

	return &Admin{
		client:    client,
		projectID: projectID,
		region:    region,
		log:       log.WithField("component", "functions_admin"),
	}, nil
}

// DescribeFunction returns deployment metadata for a function by short name.
func (a *Admin) DescribeFunction(ctx context.Context, name string) (*provider.FunctionInfo, error) {
	resource := fmt.Sprintf("projects/%s/locations/%s/functions/%s", a.projectID, a.region, name)

	a.log.WithField("function", resource).Debug("describing function")

	fn, err := a.client.GetFunction(ctx, &functionspb.GetFunctionRequest{Name: resource})
	if err != nil {
		return nil, fmt.Errorf("describing %s: %w", resource, classify(err))
	}

	info := &provider.FunctionInfo{
		Name:   name,
		State:  fn.GetState().String(),
		Labels: fn.GetLabels(),
	}

	if build := fn.GetBuildConfig(); build != nil {
		info.Runtime = build.GetRuntime()
	}

	if ts := fn.GetUpdateTime(); ts != nil {
		info.UpdateTime = ts.AsTime()
	}

	return info, nil
}

// Close releases the underlying client.
func (a *Admin) Close() error {
	return a.client.Close()
}

func classify(err error) error {
	switch status.Code(err) {
	case codes.InvalidArgument, codes.PermissionDenied, codes.Unauthenticated:
		return provider.Permanent(err)
	default:
		// NotFound stays retryable: a function mid-deploy may not be
		// visible yet.
		return err
	}
}
