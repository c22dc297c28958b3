package matcher

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"resume-matcher-go/internal/types"
)

// Ranker 对一份 JD 在简历语料上打分、排序并附加命中技能与亮点
type Ranker struct {
	strategy Strategy
}

// NewRanker 创建排序器
func NewRanker(strategy Strategy) *Ranker {
	return &Ranker{strategy: strategy}
}

// Strategy 返回当前使用的向量化策略
func (r *Ranker) Strategy() Strategy {
	return r.strategy
}

// JobText 拼接 JD 的标题、描述、要求与技能，空字段省略
func JobText(job types.JobDescriptionRecord) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{job.Title, job.Description, job.Requirements, strings.Join(job.Skills, " ")} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Rank 计算 JD 与语料快照中每份简历的相似度并返回前 topK 个结果。
// corpus 是调用时的有序快照，文本按位置取自每条记录的 CleanedText。
func (r *Ranker) Rank(ctx context.Context, job types.JobDescriptionRecord, corpus []types.ResumeRecord, topK int) ([]types.MatchResult, error) {
	all, err := r.RankAll(ctx, []types.JobDescriptionRecord{job}, corpus, topK)
	if err != nil {
		return nil, err
	}
	return all[0], nil
}

// RankAll 在同一个语料快照上依次为多份 JD 排序，向量空间只拟合一次。
// 返回结果与 jobs 一一对应。
func (r *Ranker) RankAll(ctx context.Context, jobs []types.JobDescriptionRecord, corpus []types.ResumeRecord, topK int) ([][]types.MatchResult, error) {
	if topK < 1 {
		return nil, ErrInvalidTopK
	}
	if len(corpus) == 0 {
		return nil, ErrEmptyCorpus
	}

	texts := make([]string, len(corpus))
	for i := range corpus {
		texts[i] = corpus[i].CleanedText
	}
	space, err := r.strategy.Fit(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("拟合向量空间失败: %w", err)
	}

	out := make([][]types.MatchResult, 0, len(jobs))
	for _, job := range jobs {
		results, err := rankInSpace(ctx, space, job, corpus, topK)
		if err != nil {
			return nil, err
		}
		out = append(out, results)
	}
	return out, nil
}

func rankInSpace(ctx context.Context, space Space, job types.JobDescriptionRecord, corpus []types.ResumeRecord, topK int) ([]types.MatchResult, error) {
	rawJobText := JobText(job)
	scores, err := space.Score(ctx, Normalize(rawJobText))
	if err != nil {
		return nil, fmt.Errorf("计算相似度失败: %w", err)
	}
	if len(scores) != len(corpus) {
		return nil, fmt.Errorf("相似度数量 %d 与语料数量 %d 不一致", len(scores), len(corpus))
	}

	order := make([]int, len(corpus))
	for i := range order {
		order[i] = i
	}
	// 稳定排序：同分时保持语料顺序
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	if topK < len(order) {
		order = order[:topK]
	}

	jobLower := strings.ToLower(rawJobText)
	results := make([]types.MatchResult, 0, len(order))
	for pos, idx := range order {
		resume := corpus[idx]
		matched := MatchedSkills(resume.Skills, jobLower)
		results = append(results, types.MatchResult{
			ResumeID:        resume.ID,
			SimilarityScore: clampUnit(scores[idx]) * 100,
			MatchedSkills:   matched,
			Highlights:      Highlights(resume, len(matched)),
			Rank:            pos + 1,
		})
	}
	return results, nil
}

// MatchedSkills 返回在 JD 原文中以完整词出现的简历技能，保持简历中的顺序
func MatchedSkills(skills []string, jobTextLower string) []string {
	matched := make([]string, 0, len(skills))
	for _, skill := range skills {
		if containsLowerTerm(jobTextLower, strings.ToLower(strings.TrimSpace(skill))) {
			matched = append(matched, skill)
		}
	}
	return matched
}

// Highlights 生成可读的亮点描述
func Highlights(resume types.ResumeRecord, matchedCount int) []string {
	return []string{
		fmt.Sprintf("%d years of experience", resume.ExperienceYears),
		fmt.Sprintf("%d matching skills", matchedCount),
		resume.Education,
	}
}
