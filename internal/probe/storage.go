package probe

import (
	"context"
	"time"
)

// readPrefixBytes is how much of the first object the storage check reads
// when PROBE_READ_OBJECT is enabled.
const readPrefixBytes = 1024

// runStorageCheck verifies bucket metadata access, then object listing, and
// optionally an object read. Metadata access is checked first because it
// produces the clearest error when the cross-project IAM grant is missing.
func (r *Runner) runStorageCheck(ctx context.Context) CheckResult {
	started := time.Now()
	bucket := r.cfg.BucketName
	userProject := r.cfg.BillingProject

	attrs, err := r.storage.BucketAttrs(ctx, bucket, userProject)
	if err != nil {
		return failed(CheckStorage, started, err)
	}

	detail := map[string]any{
		"bucket":                      attrs.Name,
		"location":                    attrs.Location,
		"uniform_bucket_level_access": attrs.UniformBucketLevelAccess.Enabled,
		"requester_pays":              attrs.RequesterPays,
	}
	if userProject != "" {
		detail["billing_project"] = userProject
	}

	names, err := r.storage.ListObjects(ctx, bucket, userProject, r.maxListObjects())
	if err != nil {
		return failed(CheckStorage, started, err)
	}
	detail["objects"] = names
	detail["object_count"] = len(names)

	if r.cfg.ReadObject && len(names) > 0 {
		data, readErr := r.storage.ReadObjectPrefix(ctx, bucket, names[0], userProject, readPrefixBytes)
		if readErr != nil {
			return failed(CheckStorage, started, readErr)
		}
		detail["read_object"] = names[0]
		detail["read_bytes"] = len(data)
	}

	return passed(CheckStorage, started, detail)
}

func (r *Runner) maxListObjects() int {
	if r.cfg.MaxListObjects > 0 {
		return r.cfg.MaxListObjects
	}
	return 25
}
