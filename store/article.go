package store

// Article is stored article metadata. The full body lives in ArticleContent
// to keep this row under the metadata payload ceiling.
type Article struct {
	ID        int32
	Title     string
	Slug      string
	Snippet   string
	CreatedTs int64
	UpdatedTs int64
}

type FindArticle struct {
	ID    *int32
	Title *string
	Slug  *string
}

type UpdateArticle struct {
	ID        int32
	Title     *string
	Slug      *string
	Snippet   *string
	UpdatedTs *int64
}

type DeleteArticle struct {
	ID int32
}

// ArticleContent is the separately stored full article body. Content may
// contain inline {{Q:phrase}} curiosity markers.
type ArticleContent struct {
	ID        int32
	ArticleID int32
	Content   string
}

type FindArticleContent struct {
	ArticleID *int32
}
