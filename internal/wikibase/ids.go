package wikibase

// Wikidata properties used on Commons media files.
const (
	PropertyAuthorNameString            = "P2093"
	PropertyCoordinatesOfThePointOfView = "P1259"
	PropertyCopyrightLicense            = "P275"
	PropertyCreator                     = "P170"
	PropertyDepicts                     = "P180"
	PropertyDescribedAtURL              = "P973"
	PropertyFlickrPhotoID               = "P12120"
	PropertyFlickrUserID                = "P3267"
	PropertyINaturalistObservationID    = "P5683"
	PropertyINaturalistPhotoID          = "P10666"
	PropertyINaturalistTaxonID          = "P3151"
	PropertyINaturalistUserID           = "P11860"
	PropertyInception                   = "P571"
	PropertyOperator                    = "P137"
	PropertyPASImageID                  = "P12224"
	PropertyPublicationDate             = "P577"
	PropertyPublishedIn                 = "P1433"
	PropertySourceOfFile                = "P7482"
	PropertySourcingCircumstances       = "P1480"
	PropertyStatedIn                    = "P248"
	PropertyTitle                       = "P1476"
	PropertyURL                         = "P2699"
	PropertyYouTubeChannelID            = "P2397"
	PropertyYouTubeHandle               = "P11245"
	PropertyYouTubeVideoID              = "P1651"
)

// Wikidata items referenced as statement values.
const (
	EntityCirca                   = "Q5727902"
	EntityEarth                   = "Q2"
	EntityFileAvailableOnInternet = "Q74228490"
	EntityFlickr                  = "Q103204"
	EntityGregorianCalendar       = "Q1985727"
	EntityINaturalist             = "Q16958215"
	EntityUSACE                   = "Q1049334"
	EntityYouTube                 = "Q866"
)

// EntityURIPrefix is the concept URI prefix for Wikidata items.
const EntityURIPrefix = "http://www.wikidata.org/entity/"
