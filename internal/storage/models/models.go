package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"resume-matcher-go/internal/types"
)

// Resume 简历记录表。Seq 自增，用于保持创建顺序
type Resume struct {
	Seq             uint64         `gorm:"primaryKey;autoIncrement"`
	ResumeID        string         `gorm:"type:char(36);uniqueIndex:idx_resumes_resume_id"`
	RawText         string         `gorm:"type:mediumtext"`
	CleanedText     string         `gorm:"type:mediumtext"`
	CandidateName   string         `gorm:"type:varchar(255)"`
	Email           string         `gorm:"type:varchar(255)"`
	Phone           string         `gorm:"type:varchar(50)"`
	ExperienceYears int            `gorm:"type:int"`
	SkillsJSON      datatypes.JSON `gorm:"type:json"`
	Education       string         `gorm:"type:varchar(255)"`
	FileName        string         `gorm:"type:varchar(255)"`
	FileSize        int64          `gorm:"type:bigint"`
	FileFormat      string         `gorm:"type:varchar(16)"`
	ArchiveKey      string         `gorm:"type:varchar(1024)"`
	CreatedAt       time.Time      `gorm:"type:datetime(6)"`
}

func (Resume) TableName() string {
	return "resumes"
}

// JobDescription JD记录表
type JobDescription struct {
	Seq             uint64         `gorm:"primaryKey;autoIncrement"`
	JobID           string         `gorm:"type:char(36);uniqueIndex:idx_job_descriptions_job_id"`
	Title           string         `gorm:"type:varchar(255);not null"`
	Description     string         `gorm:"type:text;not null"`
	Requirements    string         `gorm:"type:text"`
	SkillsJSON      datatypes.JSON `gorm:"type:json"`
	ExperienceLevel string         `gorm:"type:varchar(100)"`
	Location        string         `gorm:"type:varchar(255)"`
	SalaryRange     string         `gorm:"type:varchar(100)"`
	CreatedAt       time.Time      `gorm:"type:datetime(6)"`
}

func (JobDescription) TableName() string {
	return "job_descriptions"
}

// FromResumeRecord 转换为表模型
func FromResumeRecord(rec types.ResumeRecord) (Resume, error) {
	skills, err := marshalSkills(rec.Skills)
	if err != nil {
		return Resume{}, err
	}
	return Resume{
		ResumeID:        rec.ID,
		RawText:         rec.RawText,
		CleanedText:     rec.CleanedText,
		CandidateName:   rec.CandidateName,
		Email:           rec.Email,
		Phone:           rec.Phone,
		ExperienceYears: rec.ExperienceYears,
		SkillsJSON:      skills,
		Education:       rec.Education,
		FileName:        rec.FileName,
		FileSize:        rec.FileSize,
		FileFormat:      rec.FileFormat,
		ArchiveKey:      rec.ArchiveKey,
		CreatedAt:       rec.CreatedAt,
	}, nil
}

// ToRecord 转换为领域记录
func (m Resume) ToRecord() (types.ResumeRecord, error) {
	skills, err := unmarshalSkills(m.SkillsJSON)
	if err != nil {
		return types.ResumeRecord{}, err
	}
	return types.ResumeRecord{
		ID:              m.ResumeID,
		RawText:         m.RawText,
		CleanedText:     m.CleanedText,
		CandidateName:   m.CandidateName,
		Email:           m.Email,
		Phone:           m.Phone,
		ExperienceYears: m.ExperienceYears,
		Skills:          skills,
		Education:       m.Education,
		FileName:        m.FileName,
		FileSize:        m.FileSize,
		FileFormat:      m.FileFormat,
		ArchiveKey:      m.ArchiveKey,
		CreatedAt:       m.CreatedAt,
	}, nil
}

// FromJobRecord 转换为表模型
func FromJobRecord(rec types.JobDescriptionRecord) (JobDescription, error) {
	skills, err := marshalSkills(rec.Skills)
	if err != nil {
		return JobDescription{}, err
	}
	return JobDescription{
		JobID:           rec.ID,
		Title:           rec.Title,
		Description:     rec.Description,
		Requirements:    rec.Requirements,
		SkillsJSON:      skills,
		ExperienceLevel: rec.ExperienceLevel,
		Location:        rec.Location,
		SalaryRange:     rec.SalaryRange,
		CreatedAt:       rec.CreatedAt,
	}, nil
}

// ToRecord 转换为领域记录
func (m JobDescription) ToRecord() (types.JobDescriptionRecord, error) {
	skills, err := unmarshalSkills(m.SkillsJSON)
	if err != nil {
		return types.JobDescriptionRecord{}, err
	}
	return types.JobDescriptionRecord{
		ID:              m.JobID,
		Title:           m.Title,
		Description:     m.Description,
		Requirements:    m.Requirements,
		Skills:          skills,
		ExperienceLevel: m.ExperienceLevel,
		Location:        m.Location,
		SalaryRange:     m.SalaryRange,
		CreatedAt:       m.CreatedAt,
	}, nil
}

func marshalSkills(skills []string) (datatypes.JSON, error) {
	if skills == nil {
		skills = []string{}
	}
	b, err := json.Marshal(skills)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func unmarshalSkills(raw datatypes.JSON) ([]string, error) {
	skills := []string{}
	if len(raw) == 0 {
		return skills, nil
	}
	if err := json.Unmarshal(raw, &skills); err != nil {
		return nil, err
	}
	return skills, nil
}
