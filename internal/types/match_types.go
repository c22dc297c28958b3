package types

import "time"

// 字段提取的默认值
const (
	UnknownName           = "Unknown"
	EducationNotSpecified = "Not specified"
	EducationHigher       = "Higher Education"
)

// CandidateInfo 从简历原文中提取出的结构化字段
type CandidateInfo struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	ExperienceYears int      `json:"experience_years"`
	Skills          []string `json:"skills"`
	Education       string   `json:"education"`
}

// ResumeRecord 一份已上传并完成解析的简历，创建后不可变
type ResumeRecord struct {
	ID              string    `json:"id"`
	RawText         string    `json:"raw_text"`
	CleanedText     string    `json:"cleaned_text"`
	CandidateName   string    `json:"candidate_name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	ExperienceYears int       `json:"experience_years"`
	Skills          []string  `json:"skills"`
	Education       string    `json:"education"`
	FileName        string    `json:"file_name"`
	FileSize        int64     `json:"file_size"`
	FileFormat      string    `json:"file_format"`
	ArchiveKey      string    `json:"archive_key,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ApplyCandidateInfo 把提取结果写入记录
func (r *ResumeRecord) ApplyCandidateInfo(info CandidateInfo) {
	r.CandidateName = info.Name
	r.Email = info.Email
	r.Phone = info.Phone
	r.ExperienceYears = info.ExperienceYears
	r.Skills = make([]string, len(info.Skills))
	copy(r.Skills, info.Skills)
	r.Education = info.Education
}

// JobDescriptionRecord 岗位描述 (JD)
type JobDescriptionRecord struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Requirements    string    `json:"requirements,omitempty"`
	Skills          []string  `json:"skills"`
	ExperienceLevel string    `json:"experience_level,omitempty"`
	Location        string    `json:"location,omitempty"`
	SalaryRange     string    `json:"salary_range,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// MatchResult 一次匹配中单份简历的结果
type MatchResult struct {
	ResumeID        string   `json:"resume_id"`
	SimilarityScore float64  `json:"similarity_score"`
	MatchedSkills   []string `json:"matched_skills"`
	Highlights      []string `json:"highlights"`
	Rank            int      `json:"rank"`
}

// Stats 服务统计
type Stats struct {
	TotalResumes         int    `json:"total_resumes"`
	TotalJobDescriptions int    `json:"total_job_descriptions"`
	ModelType            string `json:"model_type"`
	RequestedModelType   string `json:"requested_model_type"`
}

// CandidateMatch 匹配结果附带候选人信息，用于接口输出
type CandidateMatch struct {
	MatchResult
	CandidateName   string   `json:"candidate_name"`
	Email           string   `json:"email"`
	FileName        string   `json:"file_name"`
	ExperienceYears int      `json:"experience_years"`
	Skills          []string `json:"skills"`
	Education       string   `json:"education"`
}

// NewCandidateMatch 合并匹配结果与简历字段
func NewCandidateMatch(result MatchResult, resume ResumeRecord) CandidateMatch {
	return CandidateMatch{
		MatchResult:     result,
		CandidateName:   resume.CandidateName,
		Email:           resume.Email,
		FileName:        resume.FileName,
		ExperienceYears: resume.ExperienceYears,
		Skills:          resume.Skills,
		Education:       resume.Education,
	}
}

// JobMatches 一份 JD 的匹配结果
type JobMatches struct {
	JobDescription  JobDescriptionRecord `json:"job_description"`
	TotalCandidates int                  `json:"total_candidates"`
	Results         []CandidateMatch     `json:"results"`
}
