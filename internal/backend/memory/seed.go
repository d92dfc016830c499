package memory

import (
	"time"

	"cps-console/internal/domain/content"
	"cps-console/internal/domain/project"
	"cps-console/internal/domain/subproject"
	"cps-console/internal/expiry"
)

func systemContentTypes() []content.Type {
	return []content.Type{
		{ID: 1, Name: "短链接", FieldType: content.FieldURL, IsSystem: true, Description: "跳转使用的短链接"},
		{ID: 2, Name: "长链接", FieldType: content.FieldURL, IsSystem: true, Description: "原始链接地址"},
		{ID: 3, Name: "团口令", FieldType: content.FieldText, HasExpiry: true, IsSystem: true, Description: "用于活动的团口令"},
		{ID: 4, Name: "唤起协议", FieldType: content.FieldText, IsSystem: true},
		{ID: 5, Name: "H5 图片", FieldType: content.FieldImage, IsSystem: true},
		{ID: 6, Name: "小程序图片", FieldType: content.FieldImage, IsSystem: true},
	}
}

// seed loads the sample catalogue: two categories, two projects and three
// sub-projects with a few contents and text commands.
func (b *Backend) seed(now time.Time) {
	types := b.contentTypes
	withExpiry := func(days int) (*int, string) {
		d := days
		return &d, expiry.DateAfter(days, now)
	}
	generated := now

	promoDays, promoDate := withExpiry(7)
	contents := []content.Content{
		{ID: 1, SubProjectID: 1, ContentType: types[0], ContentValue: "https://cps.example.com/short/abc123", ShowInDocumentation: true, CreatedAt: now, UpdatedAt: now},
		{ID: 2, SubProjectID: 1, ContentType: types[2], ContentValue: "团购超级优惠", ExpiryDays: promoDays, ExpiryDate: promoDate, ShowInDocumentation: true, CreatedAt: now, UpdatedAt: now},
		{ID: 3, SubProjectID: 2, ContentType: types[5], ContentValue: "https://cdn.example.com/images/product.png", ShowInDocumentation: true, CreatedAt: now, UpdatedAt: now},
	}
	commands := []content.TextCommand{
		{ID: 1, SubProjectID: 1, CommandText: "复制口令打开淘宝", ExpiryDays: 5, ExpiryDate: expiry.DateAfter(5, now), CreatedAt: now, UpdatedAt: now},
		{ID: 2, SubProjectID: 2, CommandText: "京东超值券", ExpiryDays: 2, ExpiryDate: expiry.DateAfter(2, now), CreatedAt: now, UpdatedAt: now},
	}

	contentsOf := func(id int64) []content.Content {
		out := []content.Content{}
		for _, c := range contents {
			if c.SubProjectID == id {
				out = append(out, c)
			}
		}
		return out
	}
	commandsOf := func(id int64) []content.TextCommand {
		out := []content.TextCommand{}
		for _, cmd := range commands {
			if cmd.SubProjectID == id {
				out = append(out, cmd)
			}
		}
		return out
	}

	b.categories = []project.Category{
		{ID: 1, Name: "电商平台", Description: "各大电商主站活动", SortOrder: 1, IsActive: true},
		{ID: 2, Name: "内容渠道", Description: "达人、直播等渠道", SortOrder: 2, IsActive: true},
	}
	cat1, cat2 := int64(1), int64(2)
	b.projects = []project.Project{
		{ID: 1, Name: "618 大促项目", Description: "618 大促全渠道推广计划", CategoryID: &cat1, CreatedAt: now, UpdatedAt: now, IsActive: true},
		{ID: 2, Name: "抖音内容投放", Description: "抖音达人合作推广", CategoryID: &cat2, CreatedAt: now, UpdatedAt: now, IsActive: true},
	}
	b.subProjects = []subproject.SubProject{
		{
			ID: 1, ProjectID: 1, Name: "数码家电", Description: "618 主推数码产品", SortOrder: 1,
			DocumentationEnabled: true, DocumentationGeneratedAt: &generated,
			Contents: contentsOf(1), TextCommands: commandsOf(1),
			CreatedAt: now, UpdatedAt: now, IsActive: true,
		},
		{
			ID: 2, ProjectID: 1, Name: "居家百货", Description: "热门居家用品", SortOrder: 2,
			Contents: contentsOf(2), TextCommands: commandsOf(2),
			CreatedAt: now, UpdatedAt: now, IsActive: true,
		},
		{
			ID: 3, ProjectID: 2, Name: "直播爆款", Description: "抖音直播热销", SortOrder: 1,
			DocumentationEnabled: true, DocumentationGeneratedAt: &generated,
			Contents: []content.Content{}, TextCommands: []content.TextCommand{},
			CreatedAt: now, UpdatedAt: now, IsActive: true,
		},
	}
	for i := range b.subProjects {
		b.subProjects[i].Refresh(b.calc, now)
	}

	b.ids = counters{
		category:    int64(len(b.categories)),
		project:     int64(len(b.projects)),
		subProject:  int64(len(b.subProjects)),
		contentType: int64(len(b.contentTypes)),
		content:     int64(len(contents)),
		command:     int64(len(commands)),
	}
}
