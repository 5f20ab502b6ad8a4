package studio

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tmmedia/internal/model/studio"
)

// ErrProjectNotFound 项目不存在
var ErrProjectNotFound = errors.New("project not found")

// ProjectRepository 项目仓库接口（供 service 层依赖）
type ProjectRepository interface {
	Save(ctx context.Context, project *studio.Project) error
	FindByID(ctx context.Context, id string) (*studio.Project, error)
	List(ctx context.Context, limit int64) ([]*studio.Project, error)
	Delete(ctx context.Context, id string) error
}

// ProjectRepo 项目仓库
type ProjectRepo struct {
	coll *mongo.Collection
}

// NewProjectRepo 创建项目仓库
func NewProjectRepo(db *mongo.Database) *ProjectRepo {
	var p studio.Project
	return &ProjectRepo{coll: db.Collection(p.Collection())}
}

// Save 保存项目（不存在则创建），整份文档替换
func (r *ProjectRepo) Save(ctx context.Context, project *studio.Project) error {
	now := time.Now()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	opts := options.Replace().SetUpsert(true)
	_, err := r.coll.ReplaceOne(ctx, bson.M{"id": project.ID}, project, opts)
	return err
}

// FindByID 根据ID查询
func (r *ProjectRepo) FindByID(ctx context.Context, id string) (*studio.Project, error) {
	var p studio.Project
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List 按更新时间倒序列出项目
func (r *ProjectRepo) List(ctx context.Context, limit int64) ([]*studio.Project, error) {
	opts := options.Find().SetSort(bson.M{"updated_at": -1})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var projects []*studio.Project
	if err := cur.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Delete 删除项目
func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrProjectNotFound
	}
	return nil
}
