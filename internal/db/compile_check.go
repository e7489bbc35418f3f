package db

import "github.com/vvka-141/stagehand/pkg/stagehand"

// Compile-time interface checks.
var (
	_ stagehand.Connector = (*StandardConnector)(nil)
	_ stagehand.Connector = (*TokenBasedConnector)(nil)
	_ stagehand.Connector = (*GoogleCloudSQLConnector)(nil)
	_ TokenProvider       = (*AWSIAMTokenProvider)(nil)
	_ TokenProvider       = (*AzureServicePrincipalProvider)(nil)
	_ TokenProvider       = (*AzureDefaultCredentialProvider)(nil)
)
