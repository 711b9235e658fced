// Package core holds the webhook subscription reconciliation engine: the
// desired set, brokenness detection, the reconciler, the lifecycle controller
// and the post-initialize audit. Transport and provider adapters depend on
// this package; core must not depend on them.
package core
