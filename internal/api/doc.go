// Package api provides the WordPress panel REST API.
//
//	@title						WordPress Panel API
//	@version					1.0
//	@description				Single-admin WordPress provisioning panel
//	@BasePath					/api
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package api
