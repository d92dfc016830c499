package remote

import (
	"context"
	"net/url"

	"cps-console/internal/apiclient"
	"cps-console/internal/domain/content"
	"cps-console/internal/domain/subproject"
	"cps-console/internal/normalize"
)

func (b *Backend) ListSubProjects(ctx context.Context, projectID int64) ([]subproject.SubProject, error) {
	q := url.Values{"projectId": {itoa(projectID)}}
	data, err := b.api.Get(ctx, pathSubProjects, apiclient.WithQuery(q))
	if err != nil {
		return nil, err
	}
	return b.subProjects(data), nil
}

func (b *Backend) GetSubProject(ctx context.Context, id int64) (*subproject.SubProject, error) {
	data, err := b.api.Get(ctx, pathSubProjects+"/"+itoa(id))
	if err != nil {
		return nil, err
	}
	return subProjectFrom(data, b.calc, b.now()), nil
}

func (b *Backend) CreateSubProject(ctx context.Context, in subproject.CreateSubProjectInput) (*subproject.SubProject, error) {
	data, err := b.api.Post(ctx, pathSubProjects, in)
	if err != nil {
		return nil, err
	}
	return subProjectFrom(data, b.calc, b.now()), nil
}

func (b *Backend) UpdateSubProject(ctx context.Context, id int64, in subproject.UpdateSubProjectInput) (*subproject.SubProject, error) {
	data, err := b.api.Put(ctx, pathSubProjects+"/"+itoa(id), in)
	if err != nil {
		return nil, err
	}
	return subProjectFrom(data, b.calc, b.now()), nil
}

func (b *Backend) DeleteSubProject(ctx context.Context, id int64) error {
	_, err := b.api.Delete(ctx, pathSubProjects+"/"+itoa(id))
	return err
}

// ReorderSubProjects returns the server's ordered list when the response
// carries one, and an empty slice otherwise.
func (b *Backend) ReorderSubProjects(ctx context.Context, items []subproject.SortOrderItem) ([]subproject.SubProject, error) {
	data, err := b.api.Post(ctx, pathReorder, subproject.ReorderInput{Items: items})
	if err != nil {
		return nil, err
	}
	return b.subProjects(data), nil
}

func (b *Backend) ListContentTypes(ctx context.Context) ([]content.Type, error) {
	data, err := b.api.Get(ctx, pathContentTypes)
	if err != nil {
		return nil, err
	}
	records := normalize.List(data)
	out := make([]content.Type, 0, len(records))
	for _, r := range records {
		out = append(out, normalize.ContentType(r))
	}
	return out, nil
}

func (b *Backend) CreateContentType(ctx context.Context, in content.CreateTypeInput) (*content.Type, error) {
	data, err := b.api.Post(ctx, pathContentTypes, in)
	if err != nil {
		return nil, err
	}
	return typeFrom(data), nil
}

func (b *Backend) UpdateContentType(ctx context.Context, id int64, in content.UpdateTypeInput) (*content.Type, error) {
	data, err := b.api.Put(ctx, pathContentTypes+"/"+itoa(id), in)
	if err != nil {
		return nil, err
	}
	return typeFrom(data), nil
}

func (b *Backend) DeleteContentType(ctx context.Context, id int64) error {
	_, err := b.api.Delete(ctx, pathContentTypes+"/"+itoa(id))
	return err
}

func (b *Backend) CreateContent(ctx context.Context, in content.SaveContentInput) (*content.Content, error) {
	data, err := b.api.Post(ctx, pathContents, in)
	if err != nil {
		return nil, err
	}
	return contentFrom(data, b.calc, b.now()), nil
}

func (b *Backend) UpdateContent(ctx context.Context, id int64, in content.SaveContentInput) (*content.Content, error) {
	data, err := b.api.Put(ctx, pathContents+"/"+itoa(id), in)
	if err != nil {
		return nil, err
	}
	return contentFrom(data, b.calc, b.now()), nil
}

func (b *Backend) DeleteContent(ctx context.Context, id int64) error {
	_, err := b.api.Delete(ctx, pathContents+"/"+itoa(id))
	return err
}

func (b *Backend) CreateTextCommand(ctx context.Context, in content.SaveTextCommandInput) (*content.TextCommand, error) {
	data, err := b.api.Post(ctx, pathTextCommands, in)
	if err != nil {
		return nil, err
	}
	return b.commandFrom(data), nil
}

func (b *Backend) UpdateTextCommand(ctx context.Context, id int64, in content.SaveTextCommandInput) (*content.TextCommand, error) {
	data, err := b.api.Put(ctx, pathTextCommands+"/"+itoa(id), in)
	if err != nil {
		return nil, err
	}
	return b.commandFrom(data), nil
}

func (b *Backend) DeleteTextCommand(ctx context.Context, id int64) error {
	_, err := b.api.Delete(ctx, pathTextCommands+"/"+itoa(id))
	return err
}

func (b *Backend) BulkDeleteTextCommands(ctx context.Context, in content.BulkDeleteTextCommandsInput) error {
	_, err := b.api.Post(ctx, pathBulkDelete, in)
	return err
}

func (b *Backend) subProjects(data any) []subproject.SubProject {
	now := b.now()
	records := normalize.List(data)
	out := make([]subproject.SubProject, 0, len(records))
	for _, r := range records {
		out = append(out, normalize.SubProject(r, b.calc, now))
	}
	return out
}

func (b *Backend) commandFrom(data any) *content.TextCommand {
	r, ok := data.(normalize.Raw)
	if !ok {
		return nil
	}
	cmd := normalize.TextCommand(r, b.calc, b.now())
	return &cmd
}

func typeFrom(data any) *content.Type {
	r, ok := data.(normalize.Raw)
	if !ok {
		return nil
	}
	t := normalize.ContentType(r)
	return &t
}
