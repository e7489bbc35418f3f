// Package retry provides automatic retry with exponential backoff for
// transient database failures.
//
// The ingestion pipeline opens its staging and warehouse pools at startup;
// a server that is still warming up, fails over, or briefly rejects
// connections should not abort a scheduled batch. Connectors wrap their
// connection attempts in an Executor:
//
//	classifier := retry.NewPostgreSQLErrorClassifier()
//	strategy := retry.NewExponentialBackoff(3)
//	executor := retry.NewExecutor(classifier, strategy)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return connectToDatabase(ctx)
//	})
//
// The ErrorClassifier decides which errors are transient (retryable) versus
// fatal. PostgreSQLErrorClassifier treats connection exceptions, resource
// exhaustion, operator intervention, serialization failures and deadlocks
// as transient; everything else (bad SQL, missing objects, permission
// errors) fails immediately.
//
// Executor instances are safe for concurrent use. WithOnRetry returns a new
// instance, so per-call-site callbacks never share state.
package retry
