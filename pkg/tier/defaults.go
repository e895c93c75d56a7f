package tier

// Product features and the tier that unlocks each of them.
const (
	FeatureParcelSearch       Feature = "ccp-01:parcel-search"
	FeatureParcelExport       Feature = "ccp-02:parcel-export"
	FeatureCRMContacts        Feature = "ccp-03:crm-contacts"
	FeatureCRMPipelines       Feature = "ccp-04:crm-pipelines"
	FeatureBulkLookup         Feature = "ccp-05:bulk-lookup"
	FeatureBrandedReports     Feature = "ccp-06:branded-reports"
	FeatureScheduledReports   Feature = "ccp-07:scheduled-reports"
	FeatureTeamSeats          Feature = "ccp-08:team-seats"
	FeaturePortfolioAnalytics Feature = "ccp-09:portfolio-analytics"
	FeatureAPIAccess          Feature = "ccp-10:api-access"
	FeatureSSO                Feature = "ccp-11:sso"
	FeatureAuditLogExport     Feature = "ccp-12:audit-log-export"
)

var defaultFeatures = map[Feature]Tier{
	FeatureParcelSearch:       Free,
	FeatureCRMContacts:        Free,
	FeatureParcelExport:       Pro,
	FeatureCRMPipelines:       Pro,
	FeatureBrandedReports:     Pro,
	FeatureBulkLookup:         ProPlus,
	FeatureScheduledReports:   ProPlus,
	FeatureTeamSeats:          ProPlus,
	FeaturePortfolioAnalytics: Portfolio,
	FeatureAPIAccess:          Portfolio,
	FeatureSSO:                Enterprise,
	FeatureAuditLogExport:     Enterprise,
}

// DefaultCatalog returns the built-in product catalog.
func DefaultCatalog() *Catalog {
	return MustCatalog(defaultFeatures)
}
