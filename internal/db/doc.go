// Package db provides PostgreSQL connection management for the ingestion
// pipeline.
//
// It supports standard username/password authentication as well as
// token-based authentication for cloud-managed PostgreSQL services
// (AWS RDS IAM, Azure Entra ID, Google Cloud SQL IAM). Connection
// establishment retries transient failures with exponential backoff.
package db
