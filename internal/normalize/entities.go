package normalize

import (
	"time"

	"cps-console/internal/domain/content"
	"cps-console/internal/domain/docentry"
	"cps-console/internal/domain/image"
	"cps-console/internal/domain/project"
	"cps-console/internal/domain/subproject"
	"cps-console/internal/expiry"
)

var categoryFields = table{
	"sortOrder":    {"sortOrder", "sort_order"},
	"isActive":     {"isActive", "is_active"},
	"projectCount": {"projectCount", "project_count"},
}

var projectFields = table{
	"categoryId":         {"categoryId", "category_id", "category.id"},
	"category":           {"category", "project_category"},
	"subProjectCount":    {"subProjectCount", "sub_project_count"},
	"documentationCount": {"documentationCount", "documentation_count"},
	"createdAt":          {"createdAt", "created_at"},
	"updatedAt":          {"updatedAt", "updated_at"},
	"isActive":           {"isActive", "is_active"},
}

var subProjectFields = table{
	"projectId": {"projectId", "project_id", "project.id"},
	"sortOrder": {"sortOrder", "sort_order"},
	"documentationEnabled": {
		"documentationEnabled", "enableDocumentation", "enable_documentation", "documentation_enabled",
	},
	"documentationGeneratedAt": {
		"documentationGeneratedAt", "documentation_generated_at", "lastDocumentationAt", "last_documentation_at",
	},
	"contents":     {"contents", "contentItems", "content_items"},
	"textCommands": {"textCommands", "text_commands"},
	"createdAt":    {"createdAt", "created_at"},
	"updatedAt":    {"updatedAt", "updated_at"},
	"isActive":     {"isActive", "is_active"},
}

var contentTypeFields = table{
	"fieldType": {"fieldType", "field_type"},
	"hasExpiry": {"hasExpiry", "has_expiry"},
	"isSystem":  {"isSystem", "is_system"},
}

var contentFields = table{
	"subProjectId":        {"subProjectId", "sub_project_id"},
	"contentType":         {"contentType", "content_type"},
	"contentTypeId":       {"contentTypeId", "content_type_id"},
	"contentValue":        {"contentValue", "content_value", "value"},
	"expiryDays":          {"expiryDays", "expiry_days"},
	"expiryDate":          {"expiryDate", "expiry_date"},
	"uploadedImageId":     {"uploadedImageId", "uploaded_image_id", "uploadedImage.id", "uploaded_image.id"},
	"uploadedImage":       {"uploadedImage", "uploaded_image"},
	"showInDocumentation": {"showInDocumentation", "show_in_documentation"},
	"createdAt":           {"createdAt", "created_at"},
	"updatedAt":           {"updatedAt", "updated_at"},
}

var textCommandFields = table{
	"subProjectId": {"subProjectId", "sub_project_id"},
	"commandText":  {"commandText", "command_text"},
	"expiryDays":   {"expiryDays", "expiry_days"},
	"expiryDate":   {"expiryDate", "expiry_date"},
	"createdAt":    {"createdAt", "created_at"},
	"updatedAt":    {"updatedAt", "updated_at"},
}

// documentationFields keeps the child-scoped candidates apart from the bare
// top-level id and name, which are only consulted when none of them resolve.
var documentationFields = table{
	"projectId":      {"projectId", "project_id", "project.id"},
	"projectName":    {"projectName", "project_name", "project.name"},
	"categoryId":     {"categoryId", "category_id", "category.id", "project.categoryId", "project.category_id", "project.category.id"},
	"categoryName":   {"categoryName", "category_name", "category.name", "project.category.name", "project.categoryName"},
	"subProjectId":   {"subProjectId", "sub_project_id", "subProject.id", "sub_project.id"},
	"subProjectName": {"subProjectName", "sub_project_name", "subProject.name", "sub_project.name"},
	"snapshot":       {"snapshot", "snapshot_json", "snapshotJson", "snapshotData", "snapshot_data"},
	"generatedAt": {
		"generatedAt", "generated_at",
		"subProject.lastDocumentationAt", "subProject.documentationGeneratedAt", "sub_project.documentation_generated_at",
	},
}

var imageFields = table{
	"originName": {"originName", "origin_name"},
	"links":      {"links", "link"},
	"albumId":    {"albumId", "album_id"},
	"createdAt":  {"createdAt", "created_at"},
	"updatedAt":  {"updatedAt", "updated_at"},
}

var linkFields = table{
	"markdownWithLink": {"markdown_with_link", "markdownWithLink"},
	"thumbnailUrl":     {"thumbnail_url", "thumbnailUrl"},
	"deleteUrl":        {"delete_url", "deleteUrl"},
	"bbcode":           {"bbcode", "bbCode"},
}

func Category(r Raw) project.Category {
	res := newResolver(r, categoryFields, time.Time{})
	return project.Category{
		ID:           res.int64("id"),
		Name:         res.str("name"),
		Description:  res.str("description"),
		SortOrder:    res.int("sortOrder"),
		IsActive:     res.boolOr("isActive", true),
		ProjectCount: res.int("projectCount"),
	}
}

// Project resolves a project record, including an embedded category.
func Project(r Raw, now time.Time) project.Project {
	res := newResolver(r, projectFields, now)
	p := project.Project{
		ID:                 res.int64("id"),
		Name:               res.str("name"),
		Description:        res.str("description"),
		CategoryID:         res.int64Ptr("categoryId"),
		SubProjectCount:    res.int("subProjectCount"),
		DocumentationCount: res.int("documentationCount"),
		CreatedAt:          res.time("createdAt"),
		UpdatedAt:          res.time("updatedAt"),
		IsActive:           res.boolOr("isActive", true),
	}
	if cat := res.object("category"); cat != nil {
		c := Category(cat)
		p.Category = &c
	}
	return p
}

// SubProject resolves a sub-project with its nested contents and commands.
func SubProject(r Raw, calc expiry.Calculator, now time.Time) subproject.SubProject {
	res := newResolver(r, subProjectFields, now)
	s := subproject.SubProject{
		ID:                       res.int64("id"),
		ProjectID:                res.int64("projectId"),
		Name:                     res.str("name"),
		Description:              res.str("description"),
		SortOrder:                res.int("sortOrder"),
		DocumentationEnabled:     res.boolOr("documentationEnabled", false),
		DocumentationGeneratedAt: res.timePtr("documentationGeneratedAt"),
		Contents:                 []content.Content{},
		TextCommands:             []content.TextCommand{},
		CreatedAt:                res.time("createdAt"),
		UpdatedAt:                res.time("updatedAt"),
		IsActive:                 res.boolOr("isActive", true),
	}
	for _, c := range res.list("contents") {
		item := Content(c, calc, now)
		if item.SubProjectID == 0 {
			item.SubProjectID = s.ID
		}
		s.Contents = append(s.Contents, item)
	}
	for _, c := range res.list("textCommands") {
		cmd := TextCommand(c, calc, now)
		if cmd.SubProjectID == 0 {
			cmd.SubProjectID = s.ID
		}
		s.TextCommands = append(s.TextCommands, cmd)
	}
	return s
}

func ContentType(r Raw) content.Type {
	res := newResolver(r, contentTypeFields, time.Time{})
	return content.Type{
		ID:          res.int64("id"),
		Name:        res.str("name"),
		FieldType:   content.ParseFieldType(res.str("fieldType")),
		HasExpiry:   res.boolOr("hasExpiry", false),
		IsSystem:    res.boolOr("isSystem", false),
		Description: res.str("description"),
	}
}

// Content resolves a content item and derives its expiry status with calc.
func Content(r Raw, calc expiry.Calculator, now time.Time) content.Content {
	res := newResolver(r, contentFields, now)
	c := content.Content{
		ID:                  res.int64("id"),
		SubProjectID:        res.int64("subProjectId"),
		ContentType:         ContentType(res.object("contentType")),
		ContentValue:        res.str("contentValue"),
		ExpiryDays:          res.intPtr("expiryDays"),
		ExpiryDate:          res.str("expiryDate"),
		UploadedImageID:     res.int64Ptr("uploadedImageId"),
		ShowInDocumentation: res.boolOr("showInDocumentation", true),
		CreatedAt:           res.time("createdAt"),
		UpdatedAt:           res.time("updatedAt"),
	}
	if c.ContentType.ID == 0 {
		c.ContentType.ID = res.int64("contentTypeId")
	}
	if img := res.object("uploadedImage"); img != nil {
		u := UploadedImage(img)
		c.UploadedImage = &u
	}
	c.Refresh(calc, now)
	return c
}

// TextCommand treats a command without an expiry date as due today.
func TextCommand(r Raw, calc expiry.Calculator, now time.Time) content.TextCommand {
	res := newResolver(r, textCommandFields, now)
	t := content.TextCommand{
		ID:           res.int64("id"),
		SubProjectID: res.int64("subProjectId"),
		CommandText:  res.str("commandText"),
		ExpiryDays:   res.int("expiryDays"),
		ExpiryDate:   res.strOr("expiryDate", now.Format(expiry.DateLayout)),
		CreatedAt:    res.time("createdAt"),
		UpdatedAt:    res.time("updatedAt"),
	}
	t.Refresh(calc, now)
	return t
}

// DocumentationEntry resolves a documentation record. Backends disagree on
// whether the record's own id and name belong to the entry or to the
// sub-project it documents; the top-level id and name are read as the
// sub-project's identity only when no sub-project scoped field resolves.
func DocumentationEntry(r Raw, now time.Time) docentry.Entry {
	res := newResolver(r, documentationFields, now)
	e := docentry.Entry{
		ID:             res.int64("id"),
		SubProjectID:   res.int64("subProjectId"),
		SubProjectName: res.str("subProjectName"),
		ProjectID:      res.int64("projectId"),
		ProjectName:    res.str("projectName"),
		CategoryID:     res.int64Ptr("categoryId"),
		CategoryName:   res.strOr("categoryName", docentry.UncategorizedName),
		GeneratedAt:    res.time("generatedAt"),
	}
	if !res.has("subProjectId") {
		e.SubProjectID = e.ID
	}
	if !res.has("subProjectName") {
		e.SubProjectName = res.str("name")
	}
	v, _ := res.value("snapshot")
	e.Snapshot = Snapshot(v)
	return e
}

func UploadedImage(r Raw) image.Uploaded {
	res := newResolver(r, imageFields, time.Time{})
	return image.Uploaded{
		ID:         res.int64("id"),
		Key:        res.str("key"),
		Name:       res.str("name"),
		Pathname:   res.str("pathname"),
		OriginName: res.str("originName"),
		Size:       res.int64("size"),
		Width:      res.int("width"),
		Height:     res.int("height"),
		Mimetype:   res.str("mimetype"),
		Extension:  res.str("extension"),
		MD5:        res.str("md5"),
		SHA1:       res.str("sha1"),
		Links:      links(res.object("links")),
		AlbumID:    res.int64Ptr("albumId"),
		Permission: res.intPtr("permission"),
		CreatedAt:  res.timePtr("createdAt"),
		UpdatedAt:  res.timePtr("updatedAt"),
	}
}

// HostedImage reads an image host's upload metadata.
func HostedImage(r Raw) image.Hosted {
	u := UploadedImage(r)
	return image.Hosted{
		Key:        u.Key,
		Name:       u.Name,
		Pathname:   u.Pathname,
		OriginName: u.OriginName,
		Size:       u.Size,
		Width:      u.Width,
		Height:     u.Height,
		Mimetype:   u.Mimetype,
		Extension:  u.Extension,
		MD5:        u.MD5,
		SHA1:       u.SHA1,
		Links:      u.Links,
	}
}

func links(r Raw) image.Links {
	res := newResolver(r, linkFields, time.Time{})
	return image.Links{
		URL:              res.str("url"),
		HTML:             res.str("html"),
		BBCode:           res.str("bbcode"),
		Markdown:         res.str("markdown"),
		MarkdownWithLink: res.str("markdownWithLink"),
		ThumbnailURL:     res.str("thumbnailUrl"),
		DeleteURL:        res.str("deleteUrl"),
	}
}
