package verify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oktay-be/gcp-testing-agent/internal/intent"
)

func intPtr(v int) *int { return &v }

func testResolver() *Resolver {
	return NewResolver(ResolverConfig{
		CheckTimeout: 2 * time.Minute,
		Retry:        fastRetry(5),
	})
}

func TestResolve_ObjectExists(t *testing.T) {
	t.Parallel()

	in := &intent.Intent{
		Name: "pipeline-output",
		Assertions: []*intent.Assertion{
			{Name: "artifact", Kind: intent.KindObjectExists, Target: "gs://artifacts/out/result.json"},
		},
	}

	checks, err := testResolver().Resolve(in, time.Unix(1700000000, 0).UTC())
	require.NoError(t, err)
	require.Len(t, checks, 1)

	check := checks[0]
	require.Equal(t, "artifact", check.Name)
	require.Equal(t, "artifacts", check.Bucket)
	require.Equal(t, "out/result.json", check.Prefix)
	require.Equal(t, 1, check.MinCount)
	require.Equal(t, 2*time.Minute, check.Budget)
	require.Equal(t, 5, check.Retry.MaxAttempts)
}

func TestResolve_LogAbsentExpandsFunctionTarget(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	in := &intent.Intent{
		Name: "pipeline-errors",
		Assertions: []*intent.Assertion{
			{
				Name:   "no-errors",
				Kind:   intent.KindLogAbsent,
				Target: "function:scraper-pipeline",
				Expect: &intent.Expect{Severity: "error", Window: intent.Duration(30 * time.Minute)},
			},
		},
	}

	checks, err := testResolver().Resolve(in, now)
	require.NoError(t, err)
	require.Len(t, checks, 1)

	filter := checks[0].Filter
	require.Contains(t, filter, `resource.type="cloud_function"`)
	require.Contains(t, filter, `resource.labels.function_name="scraper-pipeline"`)
	require.Contains(t, filter, `timestamp>="2025-06-01T11:30:00Z"`)
	require.Contains(t, filter, "severity>=ERROR")
}

func TestResolve_RawLogFilterPassesThrough(t *testing.T) {
	t.Parallel()

	in := &intent.Intent{
		Name: "custom-filter",
		Assertions: []*intent.Assertion{
			{Name: "custom", Kind: intent.KindLogContains, Target: `resource.type="gae_app" AND severity>=WARNING`},
		},
	}

	checks, err := testResolver().Resolve(in, time.Now())
	require.NoError(t, err)
	require.Equal(t, `resource.type="gae_app" AND severity>=WARNING`, checks[0].Filter)
}

func TestResolve_CountInRangeLimitProvesExcess(t *testing.T) {
	t.Parallel()

	in := &intent.Intent{
		Name: "artifact-count",
		Assertions: []*intent.Assertion{
			{
				Name:   "count",
				Kind:   intent.KindCountInRange,
				Target: "gs://artifacts/out/",
				Expect: &intent.Expect{MinCount: intPtr(1), MaxCount: intPtr(5)},
			},
		},
	}

	checks, err := testResolver().Resolve(in, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, checks[0].MinCount)
	require.Equal(t, 5, checks[0].MaxCount)
	require.Equal(t, 6, checks[0].Limit)
}

func TestResolve_MalformedTargets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		assertion *intent.Assertion
	}{
		{
			name:      "empty bucket",
			assertion: &intent.Assertion{Name: "a", Kind: intent.KindObjectExists, Target: "gs://"},
		},
		{
			name:      "content target without object",
			assertion: &intent.Assertion{Name: "a", Kind: intent.KindObjectContent, Target: "gs://bucket", Expect: &intent.Expect{Contains: "ok"}},
		},
		{
			name:      "content without expectation",
			assertion: &intent.Assertion{Name: "a", Kind: intent.KindObjectContent, Target: "gs://bucket/obj"},
		},
		{
			name:      "empty function name",
			assertion: &intent.Assertion{Name: "a", Kind: intent.KindLogAbsent, Target: "function:"},
		},
		{
			name:      "count without bounds",
			assertion: &intent.Assertion{Name: "a", Kind: intent.KindCountInRange, Target: "gs://bucket/out/"},
		},
		{
			name: "inverted range",
			assertion: &intent.Assertion{
				Name: "a", Kind: intent.KindCountInRange, Target: "gs://bucket/out/",
				Expect: &intent.Expect{MinCount: intPtr(5), MaxCount: intPtr(2)},
			},
		},
		{
			name:      "function name with slash",
			assertion: &intent.Assertion{Name: "a", Kind: intent.KindFunctionHealthy, Target: "projects/p/functions/f"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := &intent.Intent{Name: "bad", Assertions: []*intent.Assertion{tt.assertion}}

			_, err := testResolver().Resolve(in, time.Now())
			require.ErrorIs(t, err, ErrMalformedTarget)
		})
	}
}

func TestResolveAssertion_UnsupportedKind(t *testing.T) {
	t.Parallel()

	_, err := testResolver().resolveAssertion(&intent.Assertion{
		Name:   "a",
		Kind:   intent.Kind("quantum-entangled"),
		Target: "gs://bucket",
	}, time.Now())

	require.ErrorIs(t, err, ErrUnsupportedAssertion)
}

func TestResolve_RegistryCoversEveryKind(t *testing.T) {
	t.Parallel()

	for _, kind := range intent.Kinds() {
		require.Contains(t, builders, kind, "kind %s has no builder", kind)
	}
}

func TestResolve_IsDeterministic(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	in := &intent.Intent{
		Name: "pipeline",
		Assertions: []*intent.Assertion{
			{Name: "artifact", Kind: intent.KindObjectExists, Target: "gs://artifacts/out/"},
			{Name: "no-errors", Kind: intent.KindLogAbsent, Target: "function:scraper-pipeline", Expect: &intent.Expect{Severity: "ERROR"}},
			{Name: "deployed", Kind: intent.KindFunctionHealthy, Target: "scraper-pipeline"},
		},
	}

	first, err := testResolver().Resolve(in, now)
	require.NoError(t, err)

	second, err := testResolver().Resolve(in, now)
	require.NoError(t, err)

	require.Equal(t, first, second)
}
