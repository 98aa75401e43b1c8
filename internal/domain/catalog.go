package domain

type CatalogItem struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	PictureURI string `json:"picture_uri"`
}
