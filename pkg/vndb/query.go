package vndb

// Field selections for the two queries the server issues.
const (
	SearchFields = "id,title,released,image.url"
	DetailFields = "id,title,aliases,image.url,length,description,rating,languages,platforms,tags.name"
)

// SearchQuery finds VNs matching a free-text query.
func SearchQuery(query string, limit int) Query {
	return Query{
		Filters: []any{"search", "=", query},
		Fields:  SearchFields,
		Sort:    "searchrank",
		Results: limit,
	}
}

// DetailQuery fetches one VN by id.
func DetailQuery(id string) Query {
	return Query{
		Filters: []any{"id", "=", id},
		Fields:  DetailFields,
		Results: 1,
	}
}
